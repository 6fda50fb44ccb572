package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created with the viewer namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "frbviewer")
				So(manager.subsystem, ShouldEqual, "viewer")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithMetricPrefix("test_"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(10*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.authFailures.Inc()

			Convey("Then the options should shape metric names", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, mf := range families {
					if mf.GetName() == "test_namespace_test_subsystem_test_auth_failures_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
				So(manager.RefreshInterval(), ShouldEqual, 10*time.Second)
			})
		})

		Convey("When passing empty option values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithHistogramBuckets(nil),
				WithRefreshInterval(0),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, "frbviewer")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
				So(RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording HTTP and catalog metrics", func() {
			So(func() {
				RecordHTTPRequest("index", "GET", "200")
				RecordHTTPRequestDuration("index", "GET", "200", 1.5)
				RecordAuthFailure()
				RecordImageBytes("chime-path", 2048)
				UpdateCatalogSize("default", 12, 340)
				RecordCatalogLoad(3)
				RecordSourceSwitch("ok")
			}, ShouldNotPanic)

			Convey("Then gauges should reflect the last value", func() {
				So(testutil.ToFloat64(globalManager.catalogEvents.WithLabelValues("default")), ShouldEqual, 12)
				So(testutil.ToFloat64(globalManager.catalogCandidates.WithLabelValues("default")), ShouldEqual, 340)
			})
		})

		Convey("When recording client session metrics", func() {
			before := testutil.ToFloat64(globalManager.bulkLoads.WithLabelValues("aborted"))
			So(func() {
				RecordClientFetch("path_table", "ok", 4)
				RecordBulkLoad("aborted", 0)
				RecordBulkLoad("ok", 250)
				RecordActionDispatched("set_event_filter")
				UpdateActionQueueSize(3)
				RecordActionDropped()
			}, ShouldNotPanic)

			Convey("Then counters should advance", func() {
				So(testutil.ToFloat64(globalManager.bulkLoads.WithLabelValues("aborted")), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.actionQueueSize), ShouldEqual, 3)
			})
		})

		Convey("When recording index build, error and system metrics", func() {
			So(func() {
				UpdateIndexBuild(5, 40)
				RecordIndexBuildWarning()
				RecordErrorByComponent("api", "not_found")
				RecordErrorByType("client_error", "medium")
				RecordErrorByEndpoint("image", "GET", "not_found")
				RecordErrorLatency("http", "not_found", 2)
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(10)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})

		Convey("Then the registry should expose viewer metrics", func() {
			RecordAuthFailure()
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			names := make([]string, 0, len(families))
			for _, mf := range families {
				names = append(names, mf.GetName())
			}
			So(strings.Join(names, ","), ShouldContainSubstring, "frbviewer_viewer_auth_failures_total")
		})
	})
}
