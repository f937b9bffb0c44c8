package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/equinetracker/equinetracker/internal/bootstrap"
	"github.com/equinetracker/equinetracker/internal/data"
	"github.com/equinetracker/equinetracker/internal/domain/model"
	"github.com/equinetracker/equinetracker/internal/service"
)

const defaultMigrationTimeout = 5 * time.Minute

type migrateOptions struct {
	Timeout time.Duration
}

type seedBarnsOptions struct {
	File   string
	DryRun bool
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}
	infra, err := connectInfra(cmdCtx, false)
	if err != nil {
		return err
	}
	defer infra.Close(cmdCtx.Logger)

	ctx, cancel := contextWithTimeout(cmdCtx, opts.Timeout)
	defer cancel()

	cmdCtx.Logger.Info("running database migrations")
	if migrateErr := bootstrap.RunMigrations(ctx, infra.DB, cmdCtx.Logger); migrateErr != nil {
		return fmt.Errorf("run migrations: %w", migrateErr)
	}
	cmdCtx.Logger.Info("migrations completed successfully")
	return nil
}

func runSeedBarns(cmdCtx *commandContext, args []string) error {
	opts, err := parseSeedBarnsFlags(args)
	if err != nil {
		return err
	}
	f, err := os.Open(opts.File)
	if err != nil {
		return fmt.Errorf("open barn file: %w", err)
	}
	reqs, err := readBarnFile(f)
	if closeErr := f.Close(); closeErr != nil {
		cmdCtx.Logger.Warn("close barn file failed", "error", closeErr)
	}
	if err != nil {
		return err
	}

	if opts.DryRun {
		return renderBarnRequests(cmdCtx.Out, reqs)
	}

	infra, err := connectInfra(cmdCtx, true)
	if err != nil {
		return err
	}
	defer infra.Close(cmdCtx.Logger)
	svc := infra.shellService(&cmdCtx.Config, cmdCtx.Logger)

	for i := range reqs {
		b, upsertErr := svc.UpsertBarn(cmdCtx.Ctx, &reqs[i])
		if upsertErr != nil {
			return fmt.Errorf("upsert barn %q: %w", reqs[i].Name, upsertErr)
		}
		if err := writef(cmdCtx.Out, "%s\t%s\n", b.ID, b.Name); err != nil {
			return err
		}
	}
	cmdCtx.Logger.Info("barns seeded", "count", len(reqs))
	return nil
}

func runListBarns(cmdCtx *commandContext, _ []string) error {
	infra, err := connectInfra(cmdCtx, false)
	if err != nil {
		return err
	}
	defer infra.Close(cmdCtx.Logger)

	barns, err := data.NewBarnRepo(infra.DB).List(cmdCtx.Ctx)
	if err != nil {
		return fmt.Errorf("list barns: %w", err)
	}
	return renderBarns(cmdCtx.Out, barns)
}

func runInvalidateBarnCache(cmdCtx *commandContext, _ []string) error {
	infra, err := connectInfra(cmdCtx, true)
	if err != nil {
		return err
	}
	defer infra.Close(cmdCtx.Logger)
	if infra.Redis == nil {
		return errors.New("redis is required to invalidate the barn cache")
	}

	deleted, err := data.NewRedisCacheRepo(infra.Redis).Delete(cmdCtx.Ctx, service.BarnListCacheKey)
	if err != nil {
		return fmt.Errorf("delete %s: %w", service.BarnListCacheKey, err)
	}
	return writef(cmdCtx.Out, "key %s deleted: %t\n", service.BarnListCacheKey, deleted)
}

// readBarnFile decodes a JSON array of barns. Entries without an id get a
// fresh UUID so the file can be applied repeatedly once ids are filled in.
func readBarnFile(r io.Reader) ([]model.UpsertBarnRequest, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var reqs []model.UpsertBarnRequest
	if err := dec.Decode(&reqs); err != nil {
		return nil, fmt.Errorf("decode barn file: %w", err)
	}
	if len(reqs) == 0 {
		return nil, errors.New("barn file contains no barns")
	}

	seen := make(map[string]struct{}, len(reqs))
	for i := range reqs {
		if strings.TrimSpace(reqs[i].ID) == "" {
			reqs[i].ID = uuid.NewString()
		}
		if err := reqs[i].Validate(); err != nil {
			return nil, fmt.Errorf("barn %d: %w", i, err)
		}
		if _, dup := seen[reqs[i].ID]; dup {
			return nil, fmt.Errorf("barn %d: duplicate id %q", i, reqs[i].ID)
		}
		seen[reqs[i].ID] = struct{}{}
	}
	return reqs, nil
}

func renderBarnRequests(w io.Writer, reqs []model.UpsertBarnRequest) error {
	barns := make([]model.Barn, 0, len(reqs))
	for _, r := range reqs {
		barns = append(barns, model.Barn{ID: r.ID, Name: r.Name, Location: r.Location})
	}
	return renderBarns(w, barns)
}

func renderBarns(w io.Writer, barns []model.Barn) error {
	if len(barns) == 0 {
		return writeln(w, "(no barns)")
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writeln(tw, "ID\tNAME\tLOCATION"); err != nil {
		return fmt.Errorf("write barn header row: %w", err)
	}
	for _, b := range barns {
		loc := b.Location
		if loc == "" {
			loc = "-"
		}
		if err := writef(tw, "%s\t%s\t%s\n", b.ID, b.Name, loc); err != nil {
			return fmt.Errorf("write barn row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush barn table: %w", err)
	}
	return nil
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := migrateOptions{}
	fs.DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout,
		"Maximum duration to wait for migrations to complete")

	if err := fs.Parse(args); err != nil {
		return migrateOptions{}, err
	}
	if opts.Timeout <= 0 {
		return migrateOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func parseSeedBarnsFlags(args []string) (seedBarnsOptions, error) {
	fs := flag.NewFlagSet("seed-barns", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := seedBarnsOptions{}
	fs.StringVar(&opts.File, "file", "", "Path to a JSON array of {id, name, location} objects")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "Validate the file and print the barns without writing")

	if err := fs.Parse(args); err != nil {
		return seedBarnsOptions{}, err
	}
	opts.File = strings.TrimSpace(opts.File)
	if opts.File == "" {
		return seedBarnsOptions{}, errors.New("--file is required")
	}
	return opts, nil
}
