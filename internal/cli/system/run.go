package system

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/julianstephens/journalbot/internal/bot"
	"github.com/julianstephens/journalbot/internal/chat"
	"github.com/julianstephens/journalbot/internal/chat/telegram"
	"github.com/julianstephens/journalbot/internal/cli"
	"github.com/julianstephens/journalbot/internal/clock"
	"github.com/julianstephens/journalbot/internal/config"
	"github.com/julianstephens/journalbot/internal/constants"
	"github.com/julianstephens/journalbot/internal/index"
	"github.com/julianstephens/journalbot/internal/logger"
	"github.com/julianstephens/journalbot/internal/notion"
	"github.com/julianstephens/journalbot/internal/runlock"
	"github.com/julianstephens/journalbot/internal/scheduler"
	"github.com/julianstephens/journalbot/internal/session"
	"github.com/julianstephens/journalbot/internal/status"
	"github.com/julianstephens/journalbot/internal/synchronizer"
)

// RunCmd runs the bot in the foreground until interrupted.
type RunCmd struct {
	NoCatchUp bool `name:"no-catch-up" help:"Do not send a missed prompt on startup."`
}

func (cmd *RunCmd) Run(ctx *cli.Context) error {
	cfg := ctx.Config
	if err := cfg.ValidateBot(); err != nil {
		return err
	}

	lock, err := runlock.Acquire(cfg.DataDir())
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("failed to release run lock", "error", err)
		}
	}()

	notionToken, err := config.Secret(constants.KeyringNotionToken)
	if err != nil {
		return err
	}
	telegramToken, err := config.Secret(constants.KeyringTelegramToken)
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx.PerformAutomaticBackup(sigCtx)

	transport, err := telegram.New(telegramToken, cfg.ChatID)
	if err != nil {
		return err
	}
	docs := notion.New(notionToken, cfg.NotionDatabase, notion.WithTag(cfg.Tag))

	rt, err := newRuntime(sigCtx, ctx, docs, transport, clock.Real(), cmd.NoCatchUp)
	if err != nil {
		return err
	}
	return rt.run(sigCtx, cfg.StatusAddr)
}

// runtime is the assembled bot: the event loop owns the conversation and
// the scheduler posts its work to that loop.
type runtime struct {
	index  *index.Index
	bot    *bot.Bot
	sched  *scheduler.Scheduler
	status *status.Handler
}

// documentStore is what the runtime needs from the Notion client.
type documentStore interface {
	synchronizer.DocumentClient
	index.Lister
	Ping(ctx context.Context) error
}

func newRuntime(bg context.Context, ctx *cli.Context, docs documentStore, transport chat.Transport, clk clock.Clock, noCatchUp bool) (*runtime, error) {
	cfg := ctx.Config
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	icons, err := cfg.Icons()
	if err != nil {
		return nil, err
	}

	idx := index.New(ctx.Store, clk)
	if err := idx.Load(bg); err != nil {
		return nil, err
	}
	// An empty index would make the scheduler nag about days that are
	// already written, so it is rebuilt before anything is scheduled.
	if idx.Len() == 0 {
		logger.Info("entry index is empty, rebuilding from notion")
		if _, err := idx.Rebuild(bg, docs, loc); err != nil {
			logger.Error("index rebuild failed, continuing with an empty index", "error", err)
		}
	}

	journal := synchronizer.New(docs, idx, clk, loc, cfg.Tag)
	b := bot.New(transport, session.New(journal, icons))

	sched, err := scheduler.New(scheduler.Config{
		ChatID:         cfg.ChatID,
		PromptAt:       cfg.PromptAt,
		Location:       loc,
		DisableCatchUp: noCatchUp,
	}, clk, transport, idx, b.Post)
	if err != nil {
		return nil, err
	}

	return &runtime{
		index:  idx,
		bot:    b,
		sched:  sched,
		status: status.NewHandler(idx, ctx.Store, docs, journal.Today, sched.Status),
	}, nil
}

func (rt *runtime) run(ctx context.Context, statusAddr string) error {
	if statusAddr != "" {
		go func() {
			if err := status.Serve(ctx, statusAddr, rt.status.Router()); err != nil {
				logger.Error("status server failed", "error", err)
			}
		}()
	}

	if err := rt.sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer rt.sched.Stop()

	logger.Info("journalbot running", "entries", rt.index.Len())
	return rt.bot.Run(ctx)
}
