// Command retentionos converts one business's CRM export snapshot into a
// canonical JSON document plus a validation report, storing both as
// artifacts and optionally persisting the snapshot to a database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"retentionos/internal/adapter"
	"retentionos/internal/blob"
	"retentionos/internal/logging"
	"retentionos/internal/output"
	"retentionos/internal/persistence"
	"retentionos/internal/resolve"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "retentionos:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("retentionos", flag.ContinueOnError)
	var (
		inputDir    = fs.String("input", ".", "directory containing the CRM export CSV files")
		outputDir   = fs.String("output", "./out", "artifact directory when no blob driver is configured")
		business    = fs.String("business", "", "business name (required)")
		adapterName = fs.String("adapter", string(adapter.KindBoulevard), "source CRM adapter")
		mappingPath = fs.String("mapping", "", "override mapping document path (default: embedded)")
		strict      = fs.Bool("strict", false, "exclude flagged records from the canonical document")
		logLevel    = fs.String("log-level", "info", "log level: debug|info|warn|error")
		logFormat   = fs.String("log-format", "json", "log format: json|console")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *business == "" {
		return fmt.Errorf("-business is required")
	}

	log, err := logging.New(logging.Config{Level: *logLevel, Format: *logFormat})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	log = log.With(zap.String("run_id", uuid.NewString()), zap.String("business", *business))

	kind, err := adapter.ParseKind(*adapterName)
	if err != nil {
		return err
	}
	doc, err := loadDocument(kind, *mappingPath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	orch := resolve.New(doc, resolve.Config{Strict: *strict, Logger: log})
	tables := orch.LoadTables(*inputDir)
	res, err := orch.Run(ctx, tables)
	if err != nil {
		return err
	}

	document := output.BuildDocument(string(kind), *business, res)
	report := output.BuildReport(*business, res)

	store, err := openStore(ctx, *outputDir)
	if err != nil {
		return err
	}
	docKey, repKey, err := output.NewWriter(store, log).Write(ctx, document, report)
	if err != nil {
		return err
	}

	if snap, err := persistence.Open(ctx); err != nil {
		return err
	} else if snap != nil {
		if err := snap.Save(ctx, output.Slug(*business), res.Entities); err != nil {
			_ = snap.Close()
			return fmt.Errorf("persist snapshot: %w", err)
		}
		if err := snap.Close(); err != nil {
			return err
		}
	}

	total := 0
	for _, recs := range res.Entities {
		total += len(recs)
	}
	fmt.Printf("processed %d records for %s\n", total, *business)
	fmt.Printf("  flagged: %d, excluded: %d, unlinked: %d, skipped derivations: %d, unreadable files: %d\n",
		res.Flagged, res.Excluded, len(res.Unlinked), len(res.Skipped), len(res.FileWarnings))
	fmt.Printf("  canonical document: %s\n", docKey)
	fmt.Printf("  validation report:  %s\n", repKey)
	return nil
}

func loadDocument(kind adapter.Kind, mappingPath string) (*adapter.Document, error) {
	if mappingPath != "" {
		doc, err := adapter.LoadFile(mappingPath)
		if err != nil {
			return nil, err
		}
		if doc.Kind() != kind {
			return nil, fmt.Errorf("mapping document is for adapter %q, not %q", doc.Kind(), kind)
		}
		return doc, nil
	}
	return adapter.Boulevard()
}

// openStore honors RETENTIONOS_BLOB_* when a driver is configured and
// falls back to a filesystem store rooted at the -output directory.
func openStore(ctx context.Context, outputDir string) (blob.Store, error) {
	if os.Getenv("RETENTIONOS_BLOB_DRIVER") != "" {
		return blob.Open(ctx)
	}
	return blob.NewFilesystem(outputDir)
}
