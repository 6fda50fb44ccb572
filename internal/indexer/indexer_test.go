package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/frbviewer/internal/domain/model"
)

func touch(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

// fixture lays out two years of events under <root>/chime_path plus a host
// tree.
func fixture(t *testing.T) (pathRoot, hostRoot string) {
	t.Helper()
	base := t.TempDir()
	pathRoot = filepath.Join(base, "path")
	hostRoot = filepath.Join(base, "host")
	tree := filepath.Join(pathRoot, "chime_path")

	ev1 := filepath.Join(tree, "2019", "FRB20190425A")
	touch(t, filepath.Join(ev1, "FRB20190425A_PATH_zoom.png"), "z")
	touch(t, filepath.Join(ev1, "FRB20190425A_path.png"), "p")
	touch(t, filepath.Join(ev1, "FRB20190425A_local_stars.png"), "s")
	touch(t, filepath.Join(ev1, "FRB20190425A_PATH_candidates.csv"),
		"MAG,P_Ox,P_O,SURVEY,Z_PHOT_MEDIAN,Separation\n"+
			"21.5,0.20,0.1,LS,0.3,1.2\n"+
			"20.1,0.75,0.2,PS1,,0.4\n"+
			"bad,,0.3,,,\n")

	ev2 := filepath.Join(tree, "2020", "frb20200120E")
	touch(t, filepath.Join(ev2, "snapshot.png"), "o")
	touch(t, filepath.Join(ev2, "frb20200120E_PATH_candidate.csv"), "rmag,POX\n19.0,0.6\n")

	touch(t, filepath.Join(tree, "2020", "notes", "x.png"), "")
	touch(t, filepath.Join(tree, "misc", "FRB1", "a.png"), "")

	touch(t, filepath.Join(hostRoot, "spectra", "FRB20190425A_ppxf.png"), "")
	touch(t, filepath.Join(hostRoot, "spectra", "FRB20190425A_spec.png"), "")
	touch(t, filepath.Join(hostRoot, "FRB20190425A_SED_fit.png"), "")
	touch(t, filepath.Join(hostRoot, "FRB20190425A_cutout.png"), "")
	touch(t, filepath.Join(hostRoot, "other_event.png"), "")
	return pathRoot, hostRoot
}

func TestBuild(t *testing.T) {
	ctx := context.Background()

	Convey("Given a PATH tree with a host tree", t, func() {
		pathRoot, hostRoot := fixture(t)

		Convey("When the index is built", func() {
			res, err := New(pathRoot, WithHostRoot(hostRoot), WithConcurrency(2)).Build(ctx)
			So(err, ShouldBeNil)

			Convey("Then events come in year then id order, skipping non-event dirs", func() {
				So(res.Events, ShouldHaveLength, 2)
				So(res.Events[0].ID, ShouldEqual, "FRB20190425A")
				So(res.Events[0].Year, ShouldEqual, "2019")
				So(*res.Events[0].Date, ShouldEqual, "20190425")
				So(res.Events[1].ID, ShouldEqual, "frb20200120E")
				So(*res.Events[1].Date, ShouldEqual, "20200120")
			})

			Convey("Then path images are classified relative to the configured root", func() {
				imgs := res.Events[0].Images
				So(imgs[0].Repo, ShouldEqual, model.RepoPath)
				So(imgs[0].RelPath, ShouldEqual, "chime_path/2019/FRB20190425A/FRB20190425A_PATH_zoom.png")
				So(imgs[0].Kind, ShouldEqual, model.KindPathZoomIn)
				So(imgs[1].Kind, ShouldEqual, model.KindPathLocalStars)
				So(imgs[2].Kind, ShouldEqual, model.KindPathMain)
				So(res.Events[1].Images[0].Kind, ShouldEqual, model.KindOther)
			})

			Convey("Then matching host images are attached with their kinds", func() {
				var kinds []string
				for _, img := range res.Events[0].Images {
					if img.Repo == model.RepoHost {
						kinds = append(kinds, img.Kind)
					}
				}
				So(kinds, ShouldResemble, []string{
					model.KindHostSED, model.KindHostOther, model.KindHostPPXF, model.KindHostSpectra,
				})
				for _, img := range res.Events[1].Images {
					So(img.Repo, ShouldEqual, model.RepoPath)
				}
			})

			Convey("Then event metrics summarize the candidate table", func() {
				m := res.Events[0].Metrics
				So(*m.Top1Score, ShouldEqual, 0.75)
				So(*m.SumTop2Score, ShouldAlmostEqual, 0.95)
				So(*m.CandidateCount, ShouldEqual, 3)
				So(*m.Top1.Mag, ShouldEqual, 20.1)
				So(*m.Top1.Survey, ShouldEqual, "PS1")
				So(m.Top1.ZPhotMedian, ShouldBeNil)

				single := res.Events[1].Metrics
				So(*single.SumTop2Score, ShouldEqual, 0.6)
				So(*single.CandidateCount, ShouldEqual, 1)
			})

			Convey("Then candidate rows use aliases and skip unparseable values", func() {
				So(res.Candidates, ShouldHaveLength, 4)
				first := res.Candidates[0]
				So(first.EventID, ShouldEqual, "FRB20190425A")
				So(first.CandidateID, ShouldEqual, "1")
				So(first.Survey, ShouldEqual, "LS")
				So(first.Fields[model.ColSeparation], ShouldEqual, 1.2)
				So(first.Fields[model.ColZPhot], ShouldEqual, 0.3)

				third := res.Candidates[2]
				_, hasMag := third.Magnitude()
				_, hasPox := third.Probability()
				So(hasMag, ShouldBeFalse)
				So(hasPox, ShouldBeFalse)
				_, hasSep := third.Field(model.ColSeparation)
				So(hasSep, ShouldBeFalse)

				mag, _ := res.Candidates[3].Magnitude()
				So(mag, ShouldEqual, 19.0)
			})

			Convey("And the written files load back", func() {
				dir := t.TempDir()
				indexPath := filepath.Join(dir, "out", "frb_index.json")
				tablePath := filepath.Join(dir, "out", "path_table.json")
				So(Write(res, indexPath, tablePath), ShouldBeNil)

				var events []model.Event
				data, err := os.ReadFile(indexPath)
				So(err, ShouldBeNil)
				So(json.Unmarshal(data, &events), ShouldBeNil)
				So(model.ValidateEvents(events), ShouldBeNil)
				So(events, ShouldHaveLength, 2)

				var rows []model.Candidate
				data, err = os.ReadFile(tablePath)
				So(err, ShouldBeNil)
				So(string(data), ShouldContainSubstring, "\n  {")
				So(json.Unmarshal(data, &rows), ShouldBeNil)
				So(rows, ShouldHaveLength, 4)
				So(rows[0].CandidateID, ShouldEqual, "1")
			})
		})
	})

	Convey("Given a flat tree without chime_path and an unreadable CSV", t, func() {
		root := t.TempDir()
		ev := filepath.Join(root, "2021", "FRB20210101B")
		touch(t, filepath.Join(ev, "FRB20210101B_path.png"), "p")
		touch(t, filepath.Join(ev, "FRB20210101B_PATH_candidates.csv"), "MAG,P_Ox\n\"unterminated,0.5\n")

		Convey("When the index is built", func() {
			res, err := New(root).Build(ctx)

			Convey("Then the event keeps its images and a warning is reported", func() {
				So(err, ShouldBeNil)
				So(res.Events, ShouldHaveLength, 1)
				So(res.Events[0].Images, ShouldHaveLength, 1)
				So(res.Events[0].Images[0].RelPath, ShouldEqual, "2021/FRB20210101B/FRB20210101B_path.png")
				So(res.Events[0].Metrics.Top1Score, ShouldBeNil)
				So(res.Candidates, ShouldBeEmpty)
				So(res.Warnings, ShouldHaveLength, 1)
			})
		})
	})

	Convey("Given a missing path root", t, func() {
		_, err := New(filepath.Join(t.TempDir(), "nope")).Build(ctx)

		Convey("Then the build fails", func() {
			So(errors.Is(err, ErrPathRoot), ShouldBeTrue)
		})
	})
}

func TestHelpers(t *testing.T) {
	Convey("Given event ids", t, func() {
		So(eventDate("FRB20190425A"), ShouldNotBeNil)
		So(eventDate("FRB2019"), ShouldBeNil)
		So(eventDate("FRBabcdefghX"), ShouldBeNil)
		So(isYear("2019"), ShouldBeTrue)
		So(isYear("20x9"), ShouldBeFalse)
	})

	Convey("Given CSV rows with several aliases", t, func() {
		row := csvRow{"P_Ox": "", "P_OX": "nan", "POX": "0.4"}
		p, ok := row.float(aliasPox...)
		So(ok, ShouldBeTrue)
		So(p, ShouldEqual, 0.4)
	})
}
