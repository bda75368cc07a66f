package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/admitly/internal/adapters/sqlstore"
	app "github.com/okian/admitly/internal/app"
	"github.com/okian/admitly/internal/config"
	"github.com/okian/admitly/pkg/logger"
	"github.com/okian/admitly/pkg/metrics"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("ADMITLY_ADDR", ":8080")
			_ = os.Setenv("ADMITLY_QUEUE_SIZE", "1000")
			_ = os.Setenv("ADMITLY_WORKER_COUNT", "4")
			defer func() {
				_ = os.Unsetenv("ADMITLY_ADDR")
				_ = os.Unsetenv("ADMITLY_QUEUE_SIZE")
				_ = os.Unsetenv("ADMITLY_WORKER_COUNT")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When the configuration is invalid", func() {
			_ = os.Setenv("ADMITLY_DB_DRIVER", "oracle")
			defer func() { _ = os.Unsetenv("ADMITLY_DB_DRIVER") }()

			convey.Convey("Then run should fail before serving", func() {
				err := run(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "failed to load config")
			})
		})
	})
}

func TestOpenAssessmentLog(t *testing.T) {
	convey.Convey("Given a configuration", t, func() {
		ctx := context.Background()
		cfg := config.New()

		convey.Convey("When the database is disabled", func() {
			cfg.DBDriver = config.DBDriverNone
			l, closeLog, err := openAssessmentLog(ctx, cfg)

			convey.Convey("Then the service should fall back to memory", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(l, convey.ShouldBeNil)
				convey.So(closeLog, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When sqlite is configured", func() {
			cfg.DBDriver = config.DBDriverSQLite
			cfg.DBDSN = filepath.Join(t.TempDir(), "admitly.db")
			l, closeLog, err := openAssessmentLog(ctx, cfg)

			convey.Convey("Then a store should be opened", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(l, convey.ShouldNotBeNil)
				store, ok := l.(*sqlstore.Store)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(store.Driver(), convey.ShouldEqual, sqlstore.DriverSQLite)
				closeLog()
			})
		})
	})
}

func TestNewHandler(t *testing.T) {
	convey.Convey("Given the assembled handler", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.DBDriver = config.DBDriverNone
		cfg.MaxCohortLimit = 10
		svc := newService(cfg, logger.Get(), nil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()
		h := newHandler(ctx, cfg, svc)

		get := func(path string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
			return w
		}

		convey.Convey("Then the API and docs routes should be mounted", func() {
			convey.So(get("/v1/reference").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/openapi.yaml").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/api-docs").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/healthz").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/stats").Code, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("And the configured cohort limit should apply", func() {
			convey.So(get("/v1/cohort/top?limit=10").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/v1/cohort/top?limit=11").Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("And an estimate should round-trip", func() {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/v1/estimates", strings.NewReader(`{"gpa":3.5,"sat_score":1300}`))
			h.ServeHTTP(w, req)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, `"composite"`)
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When testing system metrics updater", func() {
			convey.Convey("Then it should return when the context ends", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startSystemMetricsUpdater(ctx)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing service metrics updater", func() {
			svc := app.New()

			convey.Convey("Then it should return when the context ends", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startServiceMetricsUpdater(ctx, svc)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When updating metrics directly", func() {
			svc := app.New()

			convey.Convey("Then neither update should panic", func() {
				convey.So(updateSystemMetrics, convey.ShouldNotPanic)
				convey.So(func() { updateServiceMetrics(context.Background(), svc) }, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing metrics initialization", func() {
			convey.Convey("Then a manager should be creatable on its own registry", func() {
				manager := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
				convey.So(manager, convey.ShouldNotBeNil)
			})
		})
	})
}
