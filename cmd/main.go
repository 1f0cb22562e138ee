package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/voxdoc/voxdoc/internal/types"
	"github.com/voxdoc/voxdoc/pkg/assistant"
	"github.com/voxdoc/voxdoc/pkg/chunker"
	cfgPkg "github.com/voxdoc/voxdoc/pkg/config"
	"github.com/voxdoc/voxdoc/pkg/extract"
	"github.com/voxdoc/voxdoc/pkg/index"
	"github.com/voxdoc/voxdoc/pkg/intent"
	"github.com/voxdoc/voxdoc/pkg/llm"
	"github.com/voxdoc/voxdoc/pkg/logger"
	"github.com/voxdoc/voxdoc/pkg/playback"
	"github.com/voxdoc/voxdoc/pkg/retriever"
	"github.com/voxdoc/voxdoc/pkg/session"
	"github.com/voxdoc/voxdoc/pkg/store"
	"github.com/voxdoc/voxdoc/server"
)

func main() {
	var configPath string
	var serve bool
	var load string

	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.BoolVar(&serve, "serve", false, "Run the WebSocket server instead of the console")
	flag.StringVar(&load, "load", "", "Comma-separated files to load on startup")
	flag.Parse()

	config, err := cfgPkg.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if issues := config.Validate(); len(issues) > 0 {
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "config: %v\n", issue)
		}
		os.Exit(1)
	}

	logger.Init(config.Log.Level, config.Log.Format)
	defer logger.Sync()

	if err := run(config, serve, load); err != nil {
		logger.Fatalf("%v", err)
	}
}

func run(config *cfgPkg.Config, serve bool, load string) error {
	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:     config.Embedder.Model,
		BaseURL:   config.Embedder.BaseURL,
		RateLimit: config.Embedder.RateLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %v", err)
	}

	chatEngine, err := llm.NewWithConfig(llm.ChatConfig{
		Model:             config.LLM.Model,
		BaseURL:           config.LLM.BaseURL,
		MaxTokens:         config.LLM.MaxTokens,
		Temperature:       config.LLM.Temperature,
		Timeout:           time.Duration(config.LLM.TimeoutSeconds) * time.Second,
		ContextCharBudget: config.Session.ContextCharBudget,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize chat engine: %v", err)
	}

	dispatcher := intent.NewDispatcher(intent.Config{
		ReadThreshold:   config.Intent.ReadThreshold,
		DeleteThreshold: config.Intent.DeleteThreshold,
		AmbiguityMargin: config.Intent.AmbiguityMargin,
	})

	manager := session.NewManager(
		session.Config{
			OnDuplicate:       config.Session.OnDuplicate,
			SummaryChunks:     config.Session.SummaryChunks,
			SummaryCharBudget: config.Session.SummaryCharBudget,
		},
		extract.NewRegistry(config.Session.SectionWords),
		chunker.NewWithConfig(chunker.Config{
			ChunkSize:    config.Chunker.ChunkSize,
			ChunkOverlap: config.Chunker.ChunkOverlap,
			MinChunkSize: config.Chunker.MinChunkSize,
		}),
		embedder,
		index.NewWithDimension(config.Embedder.Dimension),
		dispatcher,
	)

	var checkpoint *store.CheckpointStore
	if config.Database.URL != "" {
		checkpoint, err = store.NewWithConfig(store.CheckpointConfig{
			ConnString: config.Database.URL,
			TableName:  config.Database.TableName,
			VectorDim:  config.Embedder.Dimension,
			BatchSize:  config.Database.BatchSize,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize checkpoint store: %v", err)
		}
		defer checkpoint.Close()

		snap, err := checkpoint.Load(context.Background())
		if err != nil {
			logger.Warnf("checkpoint load failed, starting empty: %v", err)
		} else if len(snap.Documents) > 0 {
			if err := manager.Restore(snap); err != nil {
				logger.Warnf("checkpoint restore failed, starting empty: %v", err)
			} else {
				color.Green("Restored %d documents from checkpoint\n", manager.Len())
			}
		}
	}

	a := assistant.New(dispatcher, manager, retriever.New(embedder, manager, config.Retrieval.TopK), chatEngine, config.Retrieval.TopK)

	if load != "" {
		if err := loadStartupFiles(a, load); err != nil {
			return err
		}
	}

	if serve {
		return server.Serve(config.Server.Port, a)
	}

	return console(config, a, manager, checkpoint)
}

func loadStartupFiles(a *assistant.Assistant, load string) error {
	paths := strings.Split(load, ",")
	bar := getProgressBar(len(paths), "Loading documents...")
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		reply, err := a.Handle(context.Background(), "open "+path)
		if err != nil {
			return fmt.Errorf("failed to load %s: %v", path, err)
		}
		logger.Infof("%s", reply)
		bar.Add(1)
	}
	bar.Finish()
	fmt.Println()
	return nil
}

func console(config *cfgPkg.Config, a *assistant.Assistant, manager *session.Manager, checkpoint *store.CheckpointStore) error {
	var speaker types.Speaker = playback.NewConsole()

	color.Cyan("\nVoice assistant console. Type what you would say (\"exit\" to quit).")
	color.Cyan("Try: open notes.txt / what does it say about X / summarize everything / delete notes\n")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}
		utterance := strings.TrimSpace(scanner.Text())
		if utterance == "" {
			continue
		}
		if strings.EqualFold(utterance, "exit") || strings.EqualFold(utterance, "quit") {
			break
		}

		docsBefore, chunksBefore := manager.Len(), manager.ChunkCount()

		spinner := getSpinner("Thinking...")
		reply, err := a.Handle(context.Background(), utterance)
		spinner.Finish()
		fmt.Print("\r")

		if err != nil {
			color.Red("Error: %v\n", err)
			continue
		}
		if err := speaker.Speak(context.Background(), reply); err != nil {
			fmt.Println()
		}

		if checkpoint != nil && config.Session.CheckpointOnChange {
			if manager.Len() != docsBefore || manager.ChunkCount() != chunksBefore {
				if err := checkpoint.Save(context.Background(), manager.Snapshot()); err != nil {
					logger.Errorf("checkpoint save failed: %v", err)
				}
			}
		}
	}
	return scanner.Err()
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionShowCount(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}
