// Command advisord runs the student-advising retrieval daemon.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wattlelabs/advisord/internal/config"
	"github.com/wattlelabs/advisord/internal/embeddings"
	advisorhttp "github.com/wattlelabs/advisord/internal/http"
	"github.com/wattlelabs/advisord/internal/logging"
	"github.com/wattlelabs/advisord/internal/retrieval"
	"github.com/wattlelabs/advisord/internal/telemetry"
	"github.com/wattlelabs/advisord/internal/units"
	"github.com/wattlelabs/advisord/internal/vectorstore"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "advisord",
		Short:         "Semantic retrieval daemon for student advising",
		Long:          "advisord indexes unit descriptions, learning outcomes, skills, and learning materials into an embedded vector store and answers semantic queries over them.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.config/advisord/config.yaml)")

	root.AddCommand(newServeCommand(&configPath))
	root.AddCommand(newIngestCommand(&configPath))
	root.AddCommand(newQueryCommand(&configPath))

	return root
}

// stack holds the wired components behind a command.
type stack struct {
	logger    *zap.Logger
	telemetry *telemetry.Telemetry
	provider  embeddings.Provider
	store     vectorstore.Store
	catalog   *units.Store
	retriever *retrieval.Service
}

// close releases components in reverse construction order.
func (s *stack) close() {
	if s.catalog != nil {
		_ = s.catalog.Close()
	}
	if s.store != nil {
		_ = s.store.Close()
	}
	if s.provider != nil {
		_ = s.provider.Close()
	}
	if s.telemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = s.telemetry.Shutdown(ctx)
		cancel()
	}
	if s.logger != nil {
		_ = s.logger.Sync()
	}
}

// buildStack wires config, logger, embedder, stores, and the retrieval
// service.
func buildStack(configPath string) (*stack, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}

	s := &stack{logger: logger}

	tel, err := telemetry.New(context.Background(), cfg.Telemetry)
	if err != nil {
		s.close()
		return nil, nil, fmt.Errorf("initializing telemetry: %w", err)
	}
	s.telemetry = tel

	provider, err := embeddings.NewProvider(embeddings.ProviderConfig{
		Provider: cfg.Embeddings.Provider,
		Model:    cfg.Embeddings.Model,
		BaseURL:  cfg.Embeddings.BaseURL,
		APIKey:   cfg.Embeddings.APIKey,
		CacheDir: cfg.Embeddings.CacheDir,
	})
	if err != nil {
		s.close()
		return nil, nil, fmt.Errorf("creating embedding provider: %w", err)
	}
	s.provider = provider

	store, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{
		Path:       cfg.Store.Path,
		Compress:   cfg.Store.Compress,
		Collection: cfg.Store.Collection,
		VectorSize: cfg.Store.VectorSize,
	}, provider, logger.Named("vectorstore"))
	if err != nil {
		s.close()
		return nil, nil, fmt.Errorf("creating vector store: %w", err)
	}
	s.store = store

	catalog, err := units.Open(expandHome(cfg.Sources.UnitsDB), logger.Named("units"))
	if err != nil {
		s.close()
		return nil, nil, fmt.Errorf("opening unit catalog: %w", err)
	}
	s.catalog = catalog

	retriever, err := retrieval.NewService(store, catalog, retrieval.Config{
		SkillsFile:    cfg.Sources.SkillsFile,
		MaterialsFile: cfg.Sources.MaterialsFile,
		MaxParallel:   cfg.Retrieval.MaxParallel,
		DefaultK:      cfg.Retrieval.DefaultK,
		MaxRetries:    uint64(cfg.Retrieval.MaxRetries),
	}, logger.Named("retrieval"))
	if err != nil {
		s.close()
		return nil, nil, fmt.Errorf("creating retrieval service: %w", err)
	}
	s.retriever = retriever

	return s, cfg, nil
}

// expandHome expands a leading ~ to the user home directory.
func expandHome(path string) string {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return home + path[1:]
		}
	}
	return path
}

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cfg, err := buildStack(*configPath)
			if err != nil {
				return err
			}
			defer s.close()

			server, err := advisorhttp.NewServer(s.retriever, s.logger.Named("http"), &advisorhttp.Config{
				Host: cfg.Server.Host,
				Port: cfg.Server.Port,
			})
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			s.logger.Info("shutting down")
			return server.Shutdown(shutdownCtx)
		},
	}
}

func newIngestCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Ingest all sources into the vector store",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := buildStack(*configPath)
			if err != nil {
				return err
			}
			defer s.close()

			ctx := cmd.Context()
			var failed []string
			for source, ingest := range map[string]func(context.Context) error{
				"units":     s.retriever.IngestUnits,
				"skills":    s.retriever.IngestSkills,
				"materials": s.retriever.IngestMaterials,
			} {
				if err := ingest(ctx); err != nil {
					s.logger.Error("ingestion failed", zap.String("source", source), zap.Error(err))
					failed = append(failed, source)
				}
			}

			if len(failed) > 0 {
				return fmt.Errorf("ingestion failed for: %s", strings.Join(failed, ", "))
			}

			count, err := s.store.Count(ctx)
			if err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "corpus size: %d documents\n", count)
			}
			return nil
		},
	}
}

func newQueryCommand(configPath *string) *cobra.Command {
	var (
		k        int
		source   string
		docType  string
		unitCode string
	)

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Run a semantic query against the corpus",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := buildStack(*configPath)
			if err != nil {
				return err
			}
			defer s.close()

			results, err := s.retriever.Query(cmd.Context(), strings.Join(args, " "), k, retrieval.Filter{
				Source:   source,
				Type:     docType,
				UnitCode: unitCode,
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		},
	}

	cmd.Flags().IntVarP(&k, "k", "k", 5, "maximum number of results")
	cmd.Flags().StringVar(&source, "source", "", "filter by source (unit_guide, skills_mapping, public_resource)")
	cmd.Flags().StringVar(&docType, "type", "", "filter by type (description, learning_outcome, skill, material)")
	cmd.Flags().StringVar(&unitCode, "unit-code", "", "filter by unit code")

	return cmd
}
