package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/datsun80zx/fieldboard.git/internal/config"
	"github.com/datsun80zx/fieldboard.git/internal/dashboard"
	"github.com/datsun80zx/fieldboard.git/internal/domain"
	"github.com/datsun80zx/fieldboard.git/internal/importer"
	"github.com/datsun80zx/fieldboard.git/internal/logger"
	"github.com/datsun80zx/fieldboard.git/internal/store"
)

var errNoSource = errors.New("no data source configured")

// app is the state shared by every command, built once per invocation
type app struct {
	cfg    *config.Config
	log    *zap.Logger
	engine *dashboard.Engine
	loc    *time.Location
	views  config.Views
	out    io.Writer

	// validation is set when the dataset came from a CSV directory
	validation *importer.ValidationResult
}

var a *app

func setup(v *viper.Viper, out io.Writer) error {
	if err := config.ReadFile(v, v.GetString("config")); err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LoggerOptions())
	if err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	resolver, err := cfg.Resolver()
	if err != nil {
		return err
	}

	engine, err := dashboard.New(log, dashboard.Options{
		Location:  loc,
		CacheSize: cfg.CacheSize,
		Resolver:  &resolver,
	})
	if err != nil {
		return err
	}

	views := config.Views{}
	if cfg.Views != "" {
		if views, err = config.LoadViews(cfg.Views); err != nil {
			return err
		}
		log.Debug("views loaded",
			zap.String(logger.FieldFile, cfg.Views),
			zap.Int(logger.FieldCount, len(views)))
	}

	a = &app{
		cfg:    cfg,
		log:    log,
		engine: engine,
		loc:    loc,
		views:  views,
		out:    out,
	}
	return nil
}

// view returns the named saved view, or a zero view for an empty name
func (a *app) view(name string) (config.View, error) {
	if name == "" {
		return config.View{}, nil
	}
	return a.views.Get(name)
}

// dataset loads the configured source. A CSV directory wins over a database.
func (a *app) dataset(ctx context.Context) (*domain.Dataset, error) {
	start := time.Now()

	switch {
	case a.cfg.Data != "":
		result, err := importer.NewImporter(a.loc).LoadDir(a.cfg.Data)
		if err != nil {
			return nil, err
		}
		a.validation = result.ValidationResult
		a.logLoaded("csv", result.Dataset, start)
		if n := len(result.ValidationResult.Warnings); n > 0 {
			a.log.Warn("dataset has validation findings; run 'fieldboard validate' for details",
				zap.Int(logger.FieldCount, n))
		}
		return result.Dataset, nil

	case a.cfg.DatabaseURL != "":
		st, err := a.openStore(ctx)
		if err != nil {
			return nil, err
		}
		defer st.Close()

		ds, err := st.Load(ctx)
		if err != nil {
			return nil, err
		}
		a.logLoaded("database", ds, start)
		return ds, nil
	}

	return nil, errors.WithHint(errNoSource, "pass --data <dir> with CSV exports or --database-url")
}

func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	st, err := store.Open(a.cfg.DatabaseURL, store.WithTablePrefix(a.cfg.TablePrefix))
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func (a *app) logLoaded(source string, ds *domain.Dataset, start time.Time) {
	a.log.Info("dataset loaded",
		zap.String(logger.FieldDataset, source),
		zap.String(logger.FieldFingerprint, ds.Fingerprint),
		zap.Int(logger.FieldCount, len(ds.Jobs)),
		zap.Int(logger.FieldTotalCount, len(ds.Transactions)),
		zap.Int64(logger.FieldDurationMS, time.Since(start).Milliseconds()))
}

func (a *app) jsonOutput() bool {
	return a.cfg.JSON
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode json")
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// printError writes err and any hints attached to it
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "❌ %v\n", err)
	for _, hint := range errors.GetAllHints(err) {
		fmt.Fprintf(w, "💡 %s\n", hint)
	}
}
