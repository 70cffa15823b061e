package app

import (
	"context"

	"golang.org/x/sync/errgroup"
)

func (r *Runtime) Run(ctx context.Context) error {
	r.logger.Info("replybot runtime starting",
		"environment", r.cfg.Environment,
		"data_file", r.cfg.DataFile,
		"chat_log", r.cfg.ChatLogPath,
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return r.connector.Start(groupCtx)
	})
	group.Go(func() error {
		return r.scheduler.Start(groupCtx)
	})

	return group.Wait()
}

func (r *Runtime) Close() error {
	if r.chatlog == nil {
		return nil
	}
	return r.chatlog.Close()
}
