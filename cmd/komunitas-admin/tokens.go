package main

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/komunitas-inovasi/komunitas/internal/adapters/tokenclaims"
)

type tokenInfoOptions struct {
	Token string
	Now   func() time.Time
}

func parseTokenInfoFlags(args []string) (tokenInfoOptions, error) {
	opts := tokenInfoOptions{Now: time.Now}
	fs := pflag.NewFlagSet("token-info", pflag.ContinueOnError)
	fs.StringVarP(&opts.Token, "token", "t", os.Getenv("KOMUNITAS_ADMIN_TOKEN"), "admin bearer token")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if strings.TrimSpace(opts.Token) == "" && fs.NArg() > 0 {
		opts.Token = fs.Arg(0)
	}
	if strings.TrimSpace(opts.Token) == "" {
		return opts, errors.New("a token is required (--token or KOMUNITAS_ADMIN_TOKEN)")
	}
	return opts, nil
}

func runTokenInfo(cmdCtx *commandContext, args []string) error {
	opts, err := parseTokenInfoFlags(args)
	if err != nil {
		return err
	}
	return printTokenInfo(cmdCtx, opts)
}

func printTokenInfo(cmdCtx *commandContext, opts tokenInfoOptions) error {
	claims, err := tokenclaims.Parse(opts.Token)
	if err != nil {
		return err
	}
	now := opts.Now()

	subject := claims.Subject
	if subject == "" {
		subject = "(none)"
	}
	if err := writef(cmdCtx.Stdout, "Subject:    %s\n", subject); err != nil {
		return err
	}
	if !claims.IssuedAt.IsZero() {
		if err := writef(cmdCtx.Stdout, "Issued at:  %s (%s)\n",
			claims.IssuedAt.Format(time.RFC3339), humanize.RelTime(claims.IssuedAt, now, "ago", "from now")); err != nil {
			return err
		}
	}
	if claims.ExpiresAt.IsZero() {
		return writef(cmdCtx.Stdout, "Expires:    never (sessions fall back to the default lifetime)\n")
	}

	status := "valid"
	if !now.Before(claims.ExpiresAt) {
		status = "EXPIRED"
	}
	return writef(cmdCtx.Stdout, "Expires:    %s (%s, %s)\n",
		claims.ExpiresAt.Format(time.RFC3339), humanize.RelTime(claims.ExpiresAt, now, "ago", "from now"), status)
}
