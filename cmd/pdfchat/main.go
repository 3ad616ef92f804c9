package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/pdfchat/internal/config"
	"github.com/xxxsen/pdfchat/internal/handler"
	"github.com/xxxsen/pdfchat/internal/job"
	"github.com/xxxsen/pdfchat/internal/middleware"
	"github.com/xxxsen/pdfchat/internal/pkg/password"
	"github.com/xxxsen/pdfchat/internal/schedule"
)

func main() {
	var (
		configPath string
		filePath   string
		question   string
		accessKey  string
	)

	rootCmd := &cobra.Command{
		Use:   "pdfchat",
		Short: "question answering over pdf documents",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run pdfchat server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json or config.yaml")

	askCmd := &cobra.Command{
		Use:   "ask",
		Short: "load one pdf and answer one question",
		RunE: func(cmd *cobra.Command, args []string) error {
			if filePath == "" || question == "" {
				return fmt.Errorf("--file and --question are required")
			}
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runAsk(cmd.Context(), cfg, filePath, question)
		},
	}
	askCmd.Flags().StringVar(&configPath, "config", "", "path to config.json or config.yaml")
	askCmd.Flags().StringVar(&filePath, "file", "", "pdf file to load")
	askCmd.Flags().StringVar(&question, "question", "", "question to ask")

	hashCmd := &cobra.Command{
		Use:   "hash-key",
		Short: "print the bcrypt hash of an access key for access_key_hash",
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := password.Hash(accessKey)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	hashCmd.Flags().StringVar(&accessKey, "key", "", "access key to hash")

	rootCmd.AddCommand(runCmd, askCmd, hashCmd)
	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", path))
	return cfg, nil
}

type cronJob struct {
	job  schedule.Job
	spec string
}

func runServer(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := logutil.GetLogger(ctx)

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	go func() {
		if err := a.manager.Init(ctx); err != nil {
			log.Warn("model warm-up failed, will retry", zap.Error(err))
		}
	}()

	scheduler := schedule.NewCronScheduler()
	jobs := []cronJob{
		{job.NewSessionPurgeJob(a.sessions, time.Duration(cfg.Session.IdleMinutes)*time.Minute), cfg.Schedule.SessionPurge},
		{job.NewModelRecoverJob(a.manager), cfg.Schedule.ModelRecover},
	}
	if a.cacheRepo != nil {
		jobs = append(jobs, cronJob{job.NewEmbeddingCacheCleanupJob(a.cacheRepo, cfg.EmbedCache.RetentionDays), cfg.Schedule.EmbedCacheCleanup})
	}
	for _, j := range jobs {
		if err := scheduler.AddJob(j.job, j.spec); err != nil {
			return err
		}
	}
	scheduler.Start(ctx)

	deps := handler.RouterDeps{
		Sessions:     handler.NewSessionHandler(a.sessions, []byte(cfg.JWTSecret), time.Duration(cfg.SessionTTLHours)*time.Hour, cfg.AccessKeyHash),
		Documents:    handler.NewDocumentHandler(a.chat, int64(cfg.Extractor.MaxUploadMB)<<20),
		Chat:         handler.NewChatHandler(a.chat),
		Model:        handler.NewModelHandler(a.manager),
		JWTSecret:    []byte(cfg.JWTSecret),
		AskPerMinute: cfg.RateLimit.AskPerMinute,
	}
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	log.Info("http server listening", zap.String("addr", addr))

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("server stopping...")
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	scheduler.Stop(stopCtx)
	return nil
}

func runAsk(ctx context.Context, cfg *config.Config, path, question string) error {
	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.sessions.Create(ctx)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat pdf: %w", err)
	}
	res, err := a.chat.Ingest(ctx, sess.ID(), st.Name(), f, st.Size())
	if err != nil {
		if msg := a.chat.UserMessage(err); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		return err
	}
	fmt.Println(res.Message)
	answer, err := a.chat.Ask(ctx, sess.ID(), question)
	if err != nil {
		return err
	}
	fmt.Println(answer.Text)
	return nil
}
