package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/xifan2333/subcue/pkgs/asr/providers/bijian"
	_ "github.com/xifan2333/subcue/pkgs/asr/providers/elevenlabs"
	_ "github.com/xifan2333/subcue/pkgs/asr/providers/jianying"
	_ "github.com/xifan2333/subcue/pkgs/tts/providers/dashscope"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}
