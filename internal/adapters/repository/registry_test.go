package repository

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/frbviewer/internal/config"
)

func TestRegistry(t *testing.T) {
	ctx := context.Background()

	Convey("Given a registry with three sources", t, func() {
		sources := map[string]config.SourceConfig{
			"default": writeSource(t, testIndex, testTable),
			"archive": writeSource(t, `[{"frb_id": "A1", "path": {}, "images": []}]`, "[]"),
			"broken":  writeSource(t, `{`, "[]"),
		}
		r, err := NewRegistry(ctx, sources, "default")
		So(err, ShouldBeNil)

		Convey("Then names are sorted and the initial source is active", func() {
			So(r.Names(), ShouldResemble, []string{"archive", "broken", "default"})
			So(r.Active().Name(), ShouldEqual, "default")
		})

		Convey("When switching to a valid source", func() {
			res, err := r.Switch(ctx, "archive")

			Convey("Then it becomes active", func() {
				So(err, ShouldBeNil)
				So(res.Active, ShouldEqual, "archive")
				So(res.EventCount, ShouldEqual, 1)
				So(r.Active().Name(), ShouldEqual, "archive")
				So(r.Sources(ctx).Active, ShouldEqual, "archive")
				So(r.Events(ctx)[0].ID, ShouldEqual, "A1")
			})
		})

		Convey("When switching to an unknown source", func() {
			_, err := r.Switch(ctx, "nowhere")

			Convey("Then the previous source stays active", func() {
				So(errors.Is(err, ErrUnknownSource), ShouldBeTrue)
				So(r.Active().Name(), ShouldEqual, "default")
			})
		})

		Convey("When switching to a source that fails to load", func() {
			_, err := r.Switch(ctx, "broken")

			Convey("Then the previous source stays active", func() {
				So(errors.Is(err, ErrLoad), ShouldBeTrue)
				So(r.Active().Name(), ShouldEqual, "default")
				So(r.Active().Count(ctx), ShouldEqual, 2)
			})
		})
	})

	Convey("Given an unknown initial source", t, func() {
		_, err := NewRegistry(ctx, map[string]config.SourceConfig{}, "default")

		Convey("Then construction fails", func() {
			So(errors.Is(err, ErrUnknownSource), ShouldBeTrue)
		})
	})
}
