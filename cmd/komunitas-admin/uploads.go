package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"go.mongodb.org/mongo-driver/v2/mongo"

	mongorepo "github.com/komunitas-inovasi/komunitas/internal/adapters/mongo"
	"github.com/komunitas-inovasi/komunitas/internal/adapters/uploads"
	"github.com/komunitas-inovasi/komunitas/internal/bootstrap"
	"github.com/komunitas-inovasi/komunitas/internal/core"
	"github.com/komunitas-inovasi/komunitas/internal/service"
)

type uploadStores struct {
	properties core.PropertyRepository
	uploads    core.UploadStore
	close      func()
}

// openUploadStores connects to MongoDB and opens the configured upload directory.
func openUploadStores(cmdCtx *commandContext) (*uploadStores, error) {
	cfg := cmdCtx.Config
	client, db, err := bootstrap.ConnectMongo(cmdCtx.Ctx, bootstrap.DatabaseConfig{
		MongoConfig: cfg.Mongo,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return nil, err
	}
	store, err := uploads.NewDiskStore(uploads.Options{
		Dir:          cfg.Uploads.Dir,
		PublicPrefix: cfg.Uploads.PublicPrefix,
		MaxBytes:     cfg.Uploads.MaxBytes,
	})
	if err != nil {
		disconnect(cmdCtx, client)
		return nil, err
	}
	return &uploadStores{
		properties: mongorepo.NewPropertyRepo(db),
		uploads:    store,
		close:      func() { disconnect(cmdCtx, client) },
	}, nil
}

func disconnect(cmdCtx *commandContext, client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		cmdCtx.Logger.Warn("mongo disconnect failed", "error", err)
	}
}

func runListUploads(cmdCtx *commandContext, args []string) error {
	fs := pflag.NewFlagSet("list-uploads", pflag.ContinueOnError)
	orphansOnly := fs.Bool("orphans", false, "only show files no listing references")
	if err := fs.Parse(args); err != nil {
		return err
	}

	stores, err := openUploadStores(cmdCtx)
	if err != nil {
		return err
	}
	defer stores.close()
	return listUploads(cmdCtx, stores, *orphansOnly, time.Now())
}

func listUploads(cmdCtx *commandContext, stores *uploadStores, orphansOnly bool, now time.Time) error {
	listings, err := stores.properties.List(cmdCtx.Ctx)
	if err != nil {
		return fmt.Errorf("list properties: %w", err)
	}
	owners := make(map[string]string, len(listings))
	for _, p := range listings {
		if p != nil && p.Photo != nil {
			owners[*p.Photo] = p.ID
		}
	}

	files, err := stores.uploads.List(cmdCtx.Ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmdCtx.Stdout, 0, 0, 2, ' ', 0)
	if err := writef(tw, "PATH\tSIZE\tMODIFIED\tLISTING\n"); err != nil {
		return err
	}
	var shown int
	var total uint64
	for _, f := range files {
		owner, referenced := owners[f.PublicPath]
		if orphansOnly && referenced {
			continue
		}
		if !referenced {
			owner = "-"
		}
		if err := writef(tw, "%s\t%s\t%s\t%s\n",
			f.PublicPath, humanize.Bytes(uint64(f.Size)), humanize.RelTime(f.ModifiedAt, now, "ago", "from now"), owner); err != nil {
			return err
		}
		shown++
		total += uint64(f.Size)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writef(cmdCtx.Stdout, "\n%d files, %s\n", shown, humanize.Bytes(total))
}

func runReapUploads(cmdCtx *commandContext, args []string) error {
	fs := pflag.NewFlagSet("reap-uploads", pflag.ContinueOnError)
	minAge := fs.Duration("min-age", cmdCtx.Config.Uploads.ReaperMinAge, "keep unreferenced files younger than this")
	if err := fs.Parse(args); err != nil {
		return err
	}

	stores, err := openUploadStores(cmdCtx)
	if err != nil {
		return err
	}
	defer stores.close()
	return reapUploads(cmdCtx, stores, *minAge, time.Now)
}

func reapUploads(cmdCtx *commandContext, stores *uploadStores, minAge time.Duration, clock func() time.Time) error {
	reaper, err := service.NewUploadReaperService(service.UploadReaperServiceOptions{
		Properties: stores.properties,
		Uploads:    stores.uploads,
		MinAge:     minAge,
		Clock:      clock,
		Logger:     cmdCtx.Logger,
	})
	if err != nil {
		return err
	}

	result, runErr := reaper.RunOnce(cmdCtx.Ctx)
	if err := writef(cmdCtx.Stdout, "Scanned %d files, removed %d, freed %s\n",
		result.Scanned, result.Removed, humanize.Bytes(uint64(result.Freed))); err != nil {
		return err
	}
	return runErr
}
