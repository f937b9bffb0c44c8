package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/equinetracker/equinetracker/internal/data"
	"github.com/equinetracker/equinetracker/internal/domain/shell"
	"github.com/equinetracker/equinetracker/internal/service"
)

type associateOptions struct {
	UserID  string
	BarnIDs []string
	Select  bool
}

type switchBarnOptions struct {
	UserID string
	BarnID string
}

type showUserOptions struct {
	UserID string
}

func runAssociate(cmdCtx *commandContext, args []string) error {
	opts, err := parseAssociateFlags(args)
	if err != nil {
		return err
	}
	infra, err := connectInfra(cmdCtx, true)
	if err != nil {
		return err
	}
	defer infra.Close(cmdCtx.Logger)

	users := data.NewUserRepo(infra.DB)
	if err := users.SetAssociatedBarns(cmdCtx.Ctx, opts.UserID, opts.BarnIDs); err != nil {
		return fmt.Errorf("associate barns: %w", err)
	}
	cmdCtx.Logger.Info("user barns updated", "user_id", opts.UserID, "barns", len(opts.BarnIDs))

	if opts.Select && len(opts.BarnIDs) > 0 {
		svc := infra.shellService(&cmdCtx.Config, cmdCtx.Logger)
		if _, err := svc.SwitchBarn(cmdCtx.Ctx, service.SwitchBarnInput{
			UserID: opts.UserID,
			BarnID: opts.BarnIDs[0],
		}); err != nil {
			return fmt.Errorf("select barn: %w", err)
		}
	}
	return nil
}

func runSwitchBarn(cmdCtx *commandContext, args []string) error {
	opts, err := parseSwitchBarnFlags(args)
	if err != nil {
		return err
	}
	infra, err := connectInfra(cmdCtx, true)
	if err != nil {
		return err
	}
	defer infra.Close(cmdCtx.Logger)

	u, err := infra.shellService(&cmdCtx.Config, cmdCtx.Logger).SwitchBarn(cmdCtx.Ctx, service.SwitchBarnInput{
		UserID: opts.UserID,
		BarnID: opts.BarnID,
	})
	if err != nil {
		return err
	}
	return writef(cmdCtx.Out, "user %s now in barn %s (seq %d)\n", u.ID, u.CurrentBarn(), u.BarnSwitchSeq)
}

func runShowUser(cmdCtx *commandContext, args []string) error {
	opts, err := parseShowUserFlags(args)
	if err != nil {
		return err
	}
	infra, err := connectInfra(cmdCtx, true)
	if err != nil {
		return err
	}
	defer infra.Close(cmdCtx.Logger)

	res := infra.shellService(&cmdCtx.Config, cmdCtx.Logger).Load(cmdCtx.Ctx, opts.UserID)
	return renderShellView(cmdCtx.Out, res)
}

// shellView is the JSON printed by show-user: the resolved context plus the
// layout decisions derived from it.
type shellView struct {
	shell.Context
	Mode          string `json:"mode"`
	Selector      string `json:"selector"`
	SelectorLabel string `json:"selector_label"`
	LoadError     string `json:"load_error,omitempty"`
}

func newShellView(res service.LoadResult) shellView {
	v := shellView{
		Context:       res.Context,
		Mode:          res.Context.Mode().String(),
		Selector:      res.Context.Selector().String(),
		SelectorLabel: res.Context.SelectorLabel(),
	}
	if res.Err != nil {
		v.LoadError = res.Err.Error()
	}
	return v
}

func renderShellView(w io.Writer, res service.LoadResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(newShellView(res)); err != nil {
		return fmt.Errorf("encode shell view: %w", err)
	}
	return nil
}

// splitIDs parses a comma-separated id list, dropping blanks and duplicates.
func splitIDs(raw string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, part := range strings.Split(raw, ",") {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func parseAssociateFlags(args []string) (associateOptions, error) {
	fs := flag.NewFlagSet("associate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		opts  associateOptions
		barns string
	)
	fs.StringVar(&opts.UserID, "user", "", "User id")
	fs.StringVar(&barns, "barns", "", "Comma-separated barn ids; empty clears the association")
	fs.BoolVar(&opts.Select, "select", false, "Also make the first barn the user's active barn")

	if err := fs.Parse(args); err != nil {
		return associateOptions{}, err
	}
	opts.UserID = strings.TrimSpace(opts.UserID)
	if opts.UserID == "" {
		return associateOptions{}, errors.New("--user is required")
	}
	opts.BarnIDs = splitIDs(barns)
	if opts.Select && len(opts.BarnIDs) == 0 {
		return associateOptions{}, errors.New("--select requires at least one barn")
	}
	return opts, nil
}

func parseSwitchBarnFlags(args []string) (switchBarnOptions, error) {
	fs := flag.NewFlagSet("switch-barn", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts switchBarnOptions
	fs.StringVar(&opts.UserID, "user", "", "User id")
	fs.StringVar(&opts.BarnID, "barn", "", "Barn id to activate")

	if err := fs.Parse(args); err != nil {
		return switchBarnOptions{}, err
	}
	opts.UserID = strings.TrimSpace(opts.UserID)
	opts.BarnID = strings.TrimSpace(opts.BarnID)
	if opts.UserID == "" || opts.BarnID == "" {
		return switchBarnOptions{}, errors.New("--user and --barn are required")
	}
	return opts, nil
}

func parseShowUserFlags(args []string) (showUserOptions, error) {
	fs := flag.NewFlagSet("show-user", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts showUserOptions
	fs.StringVar(&opts.UserID, "user", "", "User id")

	if err := fs.Parse(args); err != nil {
		return showUserOptions{}, err
	}
	opts.UserID = strings.TrimSpace(opts.UserID)
	if opts.UserID == "" {
		return showUserOptions{}, errors.New("--user is required")
	}
	return opts, nil
}

func contextWithTimeout(cmdCtx *commandContext, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmdCtx.Ctx, d)
}
