package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"discord-summarizer/api"
	"discord-summarizer/bot"
	"discord-summarizer/command"
	"discord-summarizer/config"
	"discord-summarizer/database"
	grpcsvc "discord-summarizer/grpc"
	"discord-summarizer/handlers"
	"discord-summarizer/models"
	"discord-summarizer/scanner"
	"discord-summarizer/service"
	"discord-summarizer/summarizer"
	"discord-summarizer/syncstate"
	"discord-summarizer/utils"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot, HTTP API, gRPC service and scheduler",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	// 加载配置
	if err := config.LoadConfigFrom(configDir); err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	settings, err := config.Load()
	if err != nil {
		return err
	}

	// 初始化数据库
	store, err := database.Open(settings.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	// 创建一个新的 Discord session
	b, err := bot.NewBot(settings.Bot.Token)
	if err != nil {
		return fmt.Errorf("error creating bot: %w", err)
	}
	utils.InitLogger(b.Session, settings.Bot.AdminChannelID)

	svc := newService(settings, b, store)

	scheduler := bot.NewScheduler(settings.Sync.Schedule, svc, store, settings.Sync.Retention, settings.Guilds)
	b.SetScheduler(scheduler)

	h := handlers.New(svc, utils.NewAuth(settings.Commands), settings.Guilds)
	b.RegisterCommands(command.GetCommandDefinitions())

	// 配置热重载：只更新服务器列表，其余配置需要重启。
	config.Watch(configDir, func(s models.Settings) {
		scheduler.SetGuilds(s.Guilds)
		h.SetGuilds(s.Guilds)
	})

	httpServer := api.NewServer(settings.HTTP.Addr, svc, settings.HTTP.AllowedOrigins)
	grpcServer := grpcsvc.NewServer(svc)

	errCh := make(chan error, 2)
	go func() { errCh <- httpServer.Start() }()
	go func() { errCh <- grpcServer.ListenAndServe(settings.GRPC.Addr) }()

	if err := b.Start(func(b *bot.Bot) { handlers.Register(b, h) }, settings.Bot.SyncAtStartup); err != nil {
		return err
	}

	// 等待终止信号
	log.Println("Service is now running. Press CTRL-C to exit.")
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)

	var runErr error
	select {
	case <-sc:
	case runErr = <-errCh:
		log.Printf("Server exited: %v", runErr)
	}

	// 优雅地关闭
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
	grpcServer.Stop()
	b.Stop()
	h.Wait()
	svc.Wait()

	return runErr
}

// newService wires the sync orchestrator and the summary resolver onto the
// shared store.
func newService(settings models.Settings, b *bot.Bot, store *database.MessageDB) *service.Service {
	fetcher := scanner.NewDiscordFetcher(b.Session,
		scanner.WithWindow(settings.Summary.Window),
		scanner.WithMaxPages(settings.Sync.MaxPages),
	)
	orchestrator := scanner.NewOrchestrator(fetcher, store, syncstate.NewTracker(),
		scanner.WithBatchSize(settings.Sync.BatchSize),
		scanner.WithBatchPause(settings.Sync.BatchPause),
		scanner.WithMinInterval(settings.Sync.MinInterval),
	)
	resolver := summarizer.NewResolver(store, summarizer.NewOpenAIClient(settings.Summary),
		summarizer.WithMaxAge(settings.Summary.MaxAge),
		summarizer.WithWindow(settings.Summary.Window),
	)
	return service.New(orchestrator, resolver, store)
}
