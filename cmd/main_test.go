package main

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/frbviewer/internal/adapters/repository"
	"github.com/okian/frbviewer/internal/config"
	"github.com/okian/frbviewer/internal/domain/model"
	"github.com/okian/frbviewer/pkg/logger"
	"github.com/okian/frbviewer/pkg/metrics"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

// artifactTree lays out two events, one with a candidate table.
func artifactTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	ev := filepath.Join(root, "2019", "FRB20190425A")
	writeFile(t, filepath.Join(ev, "FRB20190425A_path.png"), "png")
	writeFile(t, filepath.Join(ev, "FRB20190425A_zoom.png"), "png")
	writeFile(t, filepath.Join(ev, "FRB20190425A_PATH_candidates.csv"),
		"MAG,P_Ox\n21.5,0.2\n20.1,0.7\n,0.05\n")
	writeFile(t, filepath.Join(root, "2020", "FRB20200120E", "FRB20200120E_path.png"), "png")
	return root
}

func execute(ctx context.Context, stdin string, args ...string) (string, error) {
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	convey.Convey("Given the root command", t, func() {
		out, err := execute(context.Background(), "", "version")

		convey.Convey("Then version prints the build version", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(strings.TrimSpace(out), convey.ShouldEqual, version)
		})
	})
}

func TestBuildIndexAndBrowse(t *testing.T) {
	convey.Convey("Given an artifact tree", t, func() {
		ctx := context.Background()
		tree := artifactTree(t)
		outDir := t.TempDir()
		indexPath := filepath.Join(outDir, "frb_index.json")
		tablePath := filepath.Join(outDir, "path_table.json")

		convey.Convey("When build-index runs", func() {
			out, err := execute(ctx, "", "build-index",
				"--path-root", tree, "--index-out", indexPath, "--table-out", tablePath)

			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, "Events:     2")
			convey.So(out, convey.ShouldContainSubstring, "Candidates: 3")

			cfg := config.New()
			cfg.Sources = map[string]config.SourceConfig{
				"default": {IndexPath: indexPath, PathTablePath: tablePath, PathRoot: tree},
				"empty":   {IndexPath: filepath.Join(outDir, "none.json")},
			}
			reg, err := repository.NewRegistry(ctx, cfg.Sources, "default")
			convey.So(err, convey.ShouldBeNil)
			srv := httptest.NewServer(newHandler(ctx, cfg, reg, logger.Nop()))
			defer srv.Close()

			convey.Convey("Then the server exposes the built catalog", func() {
				req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/image?repo=chime-path&rel_path=2019/FRB20190425A/FRB20190425A_path.png", http.NoBody)
				req.SetBasicAuth(cfg.User, cfg.Password)
				resp, err := http.DefaultClient.Do(req)
				convey.So(err, convey.ShouldBeNil)
				_ = resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)

				resp, err = http.Get(srv.URL + "/")
				convey.So(err, convey.ShouldBeNil)
				_ = resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			})

			convey.Convey("Then a huge path-table offset yields an empty page", func() {
				req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/path-table?limit=1000&offset="+strconv.Itoa(math.MaxInt), http.NoBody)
				req.SetBasicAuth(cfg.User, cfg.Password)
				resp, err := http.DefaultClient.Do(req)
				convey.So(err, convey.ShouldBeNil)
				defer resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				var page model.Page
				convey.So(json.NewDecoder(resp.Body).Decode(&page), convey.ShouldBeNil)
				convey.So(page.Rows, convey.ShouldBeEmpty)
				convey.So(page.HasMore, convey.ShouldBeFalse)
			})

			convey.Convey("And browse filters, selects and plots over it", func() {
				out, err := execute(ctx, "", "browse", "--server", srv.URL,
					"--id", "0425", "--min-pox", "0.1", "--event", "FRB20190425A",
					"--lightbox", "0", "--steps", "1", "--plot")

				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "Events:     1 of 2 shown")
				convey.So(out, convey.ShouldContainSubstring, "Candidates: 2 after cuts")
				convey.So(out, convey.ShouldContainSubstring, "Selection:  single FRB20190425A, 2 images")
				convey.So(out, convey.ShouldContainSubstring, "Lightbox:   2/2")
				convey.So(out, convey.ShouldContainSubstring, "pox vs mag, 2 points")
			})

			convey.Convey("And browse can bulk load with confirmation on stdin", func() {
				t.Setenv("FRB_VIEWER_CLIENT__CONFIRM_ABOVE", "1")
				out, err := execute(ctx, "yes\n", "browse", "--server", srv.URL, "--all", "--mode", "top1", "--plot")

				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "mode top1")
				convey.So(out, convey.ShouldContainSubstring, "pox vs mag, 1 points")
			})

			convey.Convey("And browse switches sources", func() {
				out, err := execute(ctx, "", "browse", "--server", srv.URL, "--source", "empty")

				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "Source:     empty")
				convey.So(out, convey.ShouldContainSubstring, "Events:     0 of 0 shown")
			})

			convey.Convey("And browse rejects unknown modes", func() {
				_, err := execute(ctx, "", "browse", "--server", srv.URL, "--grid", "sideways")
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestServe(t *testing.T) {
	convey.Convey("Given a catalog and a free port", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "frb_index.json"), `[{"frb_id":"FRB1","path":{},"images":[]}]`)
		cfg := config.New()
		cfg.Sources = map[string]config.SourceConfig{
			"default": {IndexPath: filepath.Join(dir, "frb_index.json"), PathTablePath: filepath.Join(dir, "path_table.json")},
		}
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		convey.So(err, convey.ShouldBeNil)

		done := make(chan error, 1)
		go func() { done <- serve(ctx, cfg, logger.Nop(), ln) }()

		convey.Convey("Then health answers and cancellation stops the server", func() {
			var resp *http.Response
			for i := 0; i < 50; i++ {
				resp, err = http.Get("http://" + ln.Addr().String() + "/api/health")
				if err == nil {
					break
				}
				time.Sleep(20 * time.Millisecond)
			}
			convey.So(err, convey.ShouldBeNil)
			_ = resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)

			cancel()
			select {
			case err := <-done:
				convey.So(err, convey.ShouldBeNil)
			case <-time.After(5 * time.Second):
				t.Fatal("server did not stop")
			}
		})
	})
}

func TestServeBadCatalog(t *testing.T) {
	convey.Convey("Given an unreadable catalog", t, func() {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "frb_index.json"), `{`)
		cfg := config.New()
		cfg.Sources = map[string]config.SourceConfig{"default": {IndexPath: filepath.Join(dir, "frb_index.json")}}
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then serve fails before listening", func() {
			err := serve(context.Background(), cfg, logger.Nop(), ln)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func goroutineGauge(t *testing.T) float64 {
	t.Helper()
	families, err := metrics.GetRegistry().Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, mf := range families {
		if mf.GetName() == "frbviewer_viewer_system_goroutine_count" && len(mf.GetMetric()) > 0 {
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	return 0
}

func TestSystemMetricsUpdater(t *testing.T) {
	convey.Convey("Given the system metrics updater on a short interval", t, func() {
		metrics.UpdateSystemGoroutineCount(0)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		done := make(chan struct{})
		go func() {
			startSystemMetricsUpdater(ctx, 5*time.Millisecond)
			close(done)
		}()

		convey.Convey("Then it samples goroutines and stops on cancel", func() {
			deadline := time.Now().Add(2 * time.Second)
			for goroutineGauge(t) == 0 && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			convey.So(goroutineGauge(t), convey.ShouldBeGreaterThan, 0)

			cancel()
			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("updater did not stop")
			}
		})
	})
}
