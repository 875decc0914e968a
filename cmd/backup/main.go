package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"content-hand/config"
	"content-hand/models"
	"content-hand/services"
	"content-hand/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	keepBackups int
	timeout     time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export all topics from the remote store to S3",
	Long:  `Exports every topic of the remote store as a JSON array to S3 and rotates old exports.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd.Context(), func(ctx context.Context, env *backupEnv) error {
			return runBackup(ctx, env)
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List exports in the backup bucket, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd.Context(), func(ctx context.Context, env *backupEnv) error {
			backups, err := storage.ListBackups(ctx, env.s3, env.cfg.BackupS3Bucket)
			if err != nil {
				return err
			}
			for _, b := range backups {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\n", b.LastModified.Format(time.RFC3339), b.Size, b.Key)
			}
			return nil
		})
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <key>",
	Short: "Import an export back into the remote store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd.Context(), func(ctx context.Context, env *backupEnv) error {
			return runRestore(ctx, env, args[0])
		})
	},
}

// backupEnv bündelt alles, was die Kommandos brauchen.
type backupEnv struct {
	cfg        *config.Config
	log        *zap.Logger
	store      storage.Store
	s3         storage.S3API
	normalizer *services.Normalizer
}

func withEnv(parent context.Context, fn func(context.Context, *backupEnv) error) error {
	logging, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("can't initialize zap logger: %w", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if keepBackups > 0 {
		cfg.KeepBackups = keepBackups
	}

	store, err := storage.New(cfg, logging)
	if err != nil {
		return err
	}
	s3Client, err := storage.NewS3Client(cfg)
	if err != nil {
		return fmt.Errorf("S3 client creation failed: %w", err)
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	return fn(ctx, &backupEnv{cfg: cfg, log: logging, store: store, s3: s3Client, normalizer: services.NewNormalizer()})
}

func runBackup(ctx context.Context, env *backupEnv) error {
	env.log.Info("Starte Backup-Prozess...")

	records, err := env.store.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch topics: %w", err)
	}
	topics := make([]models.ContentTopic, 0, len(records))
	for _, rec := range records {
		topics = append(topics, env.normalizer.Normalize(rec))
	}
	data, err := json.MarshalIndent(topics, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal export: %w", err)
	}

	key := storage.BackupKey(time.Now())
	if err := storage.UploadBackup(ctx, env.s3, env.cfg.BackupS3Bucket, key, data); err != nil {
		return err
	}
	env.log.Info("Backup hochgeladen.",
		zap.String("bucket", env.cfg.BackupS3Bucket), zap.String("key", key), zap.Int("topics", len(topics)))

	deleted, err := storage.RotateBackups(ctx, env.s3, env.cfg.BackupS3Bucket, env.cfg.KeepBackups, env.log)
	if err != nil {
		return fmt.Errorf("rotation failed: %w", err)
	}
	env.log.Info("Backup-Prozess erfolgreich abgeschlossen.", zap.Int("rotated", deleted))
	return nil
}

func runRestore(ctx context.Context, env *backupEnv, key string) error {
	data, err := storage.DownloadBackup(ctx, env.s3, env.cfg.BackupS3Bucket, key)
	if err != nil {
		return err
	}
	records, err := services.MapSyncResponse(string(data))
	if err != nil {
		return fmt.Errorf("export %s is not readable: %w", key, err)
	}

	failed := 0
	for _, rec := range records {
		t := env.normalizer.Normalize(rec)
		if err := env.store.Upsert(ctx, t); err != nil {
			env.log.Error("Topic konnte nicht wiederhergestellt werden.", zap.String("id", t.ID), zap.Error(err))
			failed++
		}
	}
	env.log.Info("Wiederherstellung abgeschlossen.",
		zap.String("key", key), zap.Int("topics", len(records)), zap.Int("failed", failed))
	if failed > 0 {
		return fmt.Errorf("%d of %d topics failed to restore", failed, len(records))
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().IntVar(&keepBackups, "keep", 0, "Number of exports to keep (overrides KEEP_BACKUPS)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Overall timeout")
	rootCmd.AddCommand(listCmd, restoreCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
