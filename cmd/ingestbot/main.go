package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ingestbot/internal/agent"
	"ingestbot/internal/config"
	"ingestbot/internal/domain"
	"ingestbot/internal/provider"
	"ingestbot/internal/store"
	"ingestbot/internal/tool"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	// Credentials commonly live in a local .env during development.
	_ = godotenv.Load()

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:     "ingestbot",
		Short:   "ingestbot: conversational file ingestion into a shared record store",
		Long:    "ingestbot classifies a named file, extracts a structured record with a format-specific agent, and persists it for later listing and search.",
		Version: version,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.ingestbot/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(chatCmd())
	root.AddCommand(recordsCmd())
	root.AddCommand(statusCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func loadConfig() *config.Config {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("config not found, using defaults", "path", cfgPath, "err", err)
		cfg = config.Defaults()
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(cfg.General.LogLevel)}))
	return cfg
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize config and workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := config.DefaultConfigPath()
			cfg := config.Defaults()
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}
			workspace := filepath.Join(config.DefaultConfigDir(), "workspace")
			if err := os.MkdirAll(workspace, 0o755); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath, "workspace", workspace)
			return nil
		},
	}
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start the interactive ingestion loop",
		RunE:  runChat,
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	if err := os.MkdirAll(cfg.General.Workspace, 0o755); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recStore, err := store.NewSQLiteStore(cfg.Store.DBPath, logger)
	if err != nil {
		return err
	}
	defer recStore.Close()

	registry := tool.NewRegistry(logger)
	registry.Register(tool.NewReadFileTool(cfg.General.Workspace))
	registry.Register(tool.NewListRecordsTool(recStore))
	for _, t := range tool.RecordTools(recStore, domain.SourceEmail) {
		registry.Register(t)
	}
	for _, t := range tool.RecordTools(recStore, domain.SourceJSON) {
		registry.Register(t)
	}

	factory := provider.NewFactory(cfg, logger)
	llm, err := factory.DefaultProvider(ctx)
	if err != nil {
		return fmt.Errorf("provider: %w", err)
	}

	profiles, err := config.LoadProfiles(cfg.Agents.ProfilesPath, logger)
	if err != nil {
		return err
	}

	classifier := agent.NewClassifier(llm, tool.Definitions(registry.Subset("readfile", "list_records")), logger)
	emailAgent := agent.NewEmail(llm, tool.Definitions(registry.Subset(recordToolNames(domain.SourceEmail)...)), logger)
	jsonAgent := agent.NewJSON(llm, tool.Definitions(registry.Subset(recordToolNames(domain.SourceJSON)...)), logger)
	if p, ok := profiles["classifier"]; ok {
		classifier = classifier.WithProfile(p.Model, p.SystemPrompt)
	}
	if p, ok := profiles["email"]; ok {
		emailAgent = emailAgent.WithProfile(p.Model, p.SystemPrompt)
	}
	if p, ok := profiles["json"]; ok {
		jsonAgent = jsonAgent.WithProfile(p.Model, p.SystemPrompt)
	}

	// One shared reader serves both the outer loop and the graph's
	// suspension points, so buffered lines are never split across readers.
	input := agent.NewReaderInput(os.Stdin, os.Stdout, "User: ")

	graph := agent.NewGraph(agent.GraphConfig{
		Classifier:  classifier,
		Email:       emailAgent,
		JSON:        jsonAgent,
		Runtime:     tool.NewRuntime(logger),
		Registry:    registry,
		Input:       input,
		Checkpoints: agent.NewCheckpointer(),
		OnMessage:   printMessage,
		Logger:      logger,
		MaxSteps:    cfg.General.MaxSteps,
	})

	threadID := uuid.NewString()
	fmt.Println("ingestbot. Name a file to ingest, or ask about stored records. Type quit to exit.")

	for {
		line, err := input.ReadInput(ctx)
		if err != nil {
			if err == io.EOF || ctx.Err() != nil {
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if agent.IsQuitSentinel(line) {
			fmt.Println("Goodbye!")
			return nil
		}

		if err := graph.Run(ctx, threadID, line); err != nil {
			if ctx.Err() != nil {
				fmt.Println("\nGoodbye!")
				return nil
			}
			fmt.Println("Error:", err)
		}
	}
}

// printMessage surfaces graph activity in the terminal, mirroring one line
// per appended message.
func printMessage(msg domain.Message) {
	switch msg.Role {
	case domain.RoleAssistant:
		if msg.Content != "" {
			fmt.Println("Assistant:", msg.Content)
		}
		for _, tc := range msg.ToolCalls {
			fmt.Println("Assistant requested:", tc.Name)
		}
	case domain.RoleTool:
		fmt.Println("Tool response:", msg.ToolName)
	}
}

func recordToolNames(source string) []string {
	return []string{
		fmt.Sprintf("add_%s_record", source),
		fmt.Sprintf("get_%s_record", source),
		fmt.Sprintf("update_%s_record", source),
		fmt.Sprintf("delete_%s_record", source),
		fmt.Sprintf("list_%s_records", source),
		fmt.Sprintf("search_%s_records", source),
	}
}

func recordsCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "records",
		Short: "Inspect the shared record store",
	}

	var source, rtype, thread string
	var limit int

	list := &cobra.Command{
		Use:   "list",
		Short: "List records, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, s domain.RecordStore) error {
				recs, err := s.List(ctx, domain.RecordFilter{Source: source, Type: rtype, ThreadID: thread, Limit: limit})
				if err != nil {
					return err
				}
				return printJSON(recs)
			})
		},
	}
	list.Flags().StringVar(&source, "source", "", "filter by source (classifier|json|email)")
	list.Flags().StringVar(&rtype, "type", "", "filter by record type")
	list.Flags().StringVar(&thread, "thread", "", "filter by thread id")
	list.Flags().IntVar(&limit, "limit", 50, "max records")

	var searchSource string
	var searchLimit int
	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search record data for a substring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, s domain.RecordStore) error {
				recs, err := s.Search(ctx, args[0], searchSource, searchLimit)
				if err != nil {
					return err
				}
				return printJSON(recs)
			})
		},
	}
	search.Flags().StringVar(&searchSource, "source", "", "filter by source")
	search.Flags().IntVar(&searchLimit, "limit", 20, "max records")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Fetch one record by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			return withStore(func(ctx context.Context, s domain.RecordStore) error {
				rec, err := s.GetByID(ctx, id)
				if err != nil {
					return err
				}
				if rec == nil {
					fmt.Println("not found")
					return nil
				}
				return printJSON(rec)
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one record by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			return withStore(func(ctx context.Context, s domain.RecordStore) error {
				deleted, err := s.Delete(ctx, id)
				if err != nil {
					return err
				}
				if !deleted {
					fmt.Println("not found")
					return nil
				}
				fmt.Println("deleted", id)
				return nil
			})
		},
	}

	root.AddCommand(list, search, get, del)
	return root
}

func withStore(fn func(ctx context.Context, s domain.RecordStore) error) error {
	cfg := loadConfig()
	recStore, err := store.NewSQLiteStore(cfg.Store.DBPath, logger)
	if err != nil {
		return err
	}
	defer recStore.Close()
	return fn(context.Background(), recStore)
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show config, store, and provider health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			fmt.Println("config:", resolveConfigPath())
			fmt.Println("workspace:", cfg.General.Workspace)
			fmt.Println("store:", cfg.Store.DBPath)

			recStore, err := store.NewSQLiteStore(cfg.Store.DBPath, logger)
			if err != nil {
				fmt.Println("store: unreachable:", err)
			} else {
				recStore.Close()
				fmt.Println("store: ok")
			}

			ctx := context.Background()
			factory := provider.NewFactory(cfg, logger)
			llm, err := factory.DefaultProvider(ctx)
			if err != nil {
				fmt.Println("provider: unavailable:", err)
				return nil
			}
			if err := llm.Healthy(ctx); err != nil {
				fmt.Printf("provider %s: unhealthy: %v\n", llm.Name(), err)
			} else {
				fmt.Printf("provider %s: ok\n", llm.Name())
			}
			return nil
		},
	}
}
