package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	models "github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/models/tetris"
	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/services/tetris"
	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/terminal"
)

func main() {
	width := flag.Int("width", 10, "board width")
	height := flag.Int("height", 20, "board height")
	tick := flag.Duration("tick", tetris.InitialTickInterval, "gravity tick interval")
	logFile := flag.String("log", "", "write logs to this file (logs are discarded by default)")
	flag.Parse()

	// 画面を壊さないようにログは標準エラーに出さない
	log.SetOutput(io.Discard)
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	if !models.SpawnFits(*width, *height) || *tick <= 0 {
		fmt.Fprintf(os.Stderr, "board %dx%d is too small for every piece to spawn, or tick is not positive\n", *width, *height)
		os.Exit(2)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}

	game := terminal.NewGame(screen,
		tetris.WithBoardSize(*width, *height),
		tetris.WithTickInterval(*tick),
	)
	start := time.Now()
	game.Run()
	screen.Fini()

	fmt.Printf("Score: %d  Lines: %d  Time: %s\n", game.State().Score, game.State().LinesCleared, time.Since(start).Round(time.Second))
}
