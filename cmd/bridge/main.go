// Command bridge is the Choom Bridge entrypoint: it wires the transport,
// companion client, command interpreter, response composer, scheduler,
// and orchestrator together and runs until a termination signal arrives.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rotoslider/choom-bridge/internal/backup"
	"github.com/rotoslider/choom-bridge/internal/bridge"
	"github.com/rotoslider/choom-bridge/internal/calendar"
	"github.com/rotoslider/choom-bridge/internal/commands"
	"github.com/rotoslider/choom-bridge/internal/companion"
	"github.com/rotoslider/choom-bridge/internal/compose"
	"github.com/rotoslider/choom-bridge/internal/config"
	"github.com/rotoslider/choom-bridge/internal/homeauto"
	"github.com/rotoslider/choom-bridge/internal/intent"
	"github.com/rotoslider/choom-bridge/internal/logging"
	"github.com/rotoslider/choom-bridge/internal/rpcclient"
	"github.com/rotoslider/choom-bridge/internal/scheduler"
	"github.com/rotoslider/choom-bridge/internal/tts"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "bridge:", err)
		os.Exit(1)
	}
}

func run() error {
	log := logging.New(logging.Options{
		Level:    env("LOG_LEVEL", "info"),
		FilePath: env("LOG_FILE", ""),
		Console:  env("LOG_CONSOLE", "true") == "true",
	})

	lockPath := env("BRIDGE_LOCK_FILE", "/tmp/choom-bridge.lock")
	lock, err := bridge.Acquire(lockPath)
	if err != nil {
		return err
	}
	defer lock.Release()

	stateDir := env("BRIDGE_STATE_DIR", "./state")
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tempDir := env("BRIDGE_TEMP_DIR", stateDir+"/tmp")

	store := config.NewStore(stateDir + "/config.json")

	transport := rpcclient.New(env("SIGNAL_SOCKET_PATH", "/var/run/signal-cli/socket"), log)

	companionClient := companion.New(env("COMPANION_BASE_URL", "http://localhost:8787"), store, log)

	calClient := calendar.NewMemoryClient()
	interpreter := commands.New(calClient, store)

	var haClient homeauto.Client
	if haURL := env("HOME_ASSISTANT_BASE_URL", ""); haURL != "" {
		haClient = homeauto.NewHTTPClient(haURL, env("HOME_ASSISTANT_TOKEN", ""))
	}
	conditions := scheduler.NewConditionEvaluator(companionClient, calClient, haClient)

	speaker := tts.New(env("OPENAI_API_KEY", ""), env("TTS_BASE_URL", ""), env("TTS_MODEL", ""))
	transcriber := tts.NewTranscriber(env("OPENAI_API_KEY", ""), env("STT_BASE_URL", ""), env("STT_MODEL", ""))

	composer := compose.New(transport, speaker, companionClient, tempDir, log)

	sticky := intent.NewSticky(env("DEFAULT_COMPANION", ""))

	var backupStorage backup.Storage
	var backupSources []backup.SourceFile
	if backupDir := env("BACKUP_DIR", ""); backupDir != "" {
		fs, err := backup.NewFilesystem(backupDir)
		if err != nil {
			return fmt.Errorf("backup storage: %w", err)
		}
		backupStorage = fs
		backupSources = []backup.SourceFile{{Path: stateDir + "/config.json", Prefix: "config-"}}
	}

	sched := scheduler.New(store, companionClient, composer, transport, speaker, conditions, log, scheduler.Options{
		OwnerRecipient:   env("OWNER_ID", ""),
		OwnerName:        env("OWNER_NAME", ""),
		DefaultCompanion: env("DEFAULT_COMPANION", ""),
		TempDir:          tempDir,
		BackupStorage:    backupStorage,
		BackupSources:    backupSources,
		BackupKeep:       envInt("BACKUP_KEEP", 5),
	})

	orchestrator := bridge.New(transport, companionClient, composer, interpreter, sticky, transcriber, log, bridge.Options{
		OwnerID:        env("OWNER_ID", ""),
		AttachmentsDir: env("SIGNAL_ATTACHMENTS_DIR", "/var/run/signal-cli/attachments"),
		PollInterval:   envDuration("POLL_INTERVAL", time.Second),
		ConnectTimeout: envDuration("CONNECT_TIMEOUT", 30*time.Second),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	defer sched.Stop()

	log.Info().Msg("bridge: running")
	err = orchestrator.Run(ctx)
	if err != nil && err != context.Canceled {
		return err
	}
	log.Info().Msg("bridge: shutting down")
	return nil
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
