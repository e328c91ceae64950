// Command analyze plays simulated games with every configuration in a directory and
// prints how each one behaves: average and best score, best tile, share of spawned
// fours and moves per game. Configurations are simulated concurrently.
package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/mcp-training/mergemania/game/config"
	"github.com/wricardo/mcp-training/mergemania/game/engine"
)

// maxMovesPerGame stops a simulated game that never ends
const maxMovesPerGame = 1 << 20

// Strategy picks the next direction for the active face, or false when it has none
type Strategy interface {
	Name() string
	Next(eng engine.Engine, rng *rand.Rand) (engine.Direction, bool)
}

// RandomStrategy plays a uniformly random direction among those that change the board
type RandomStrategy struct{}

func (RandomStrategy) Name() string { return "random" }

func (RandomStrategy) Next(eng engine.Engine, rng *rand.Rand) (engine.Direction, bool) {
	moves := eng.GetPossibleMoves()
	if len(moves) == 0 {
		return "", false
	}
	return moves[rng.IntN(len(moves))], true
}

// CornerStrategy keeps large tiles in the bottom left corner by preferring down and left
type CornerStrategy struct{}

func (CornerStrategy) Name() string { return "corner" }

func (CornerStrategy) Next(eng engine.Engine, _ *rand.Rand) (engine.Direction, bool) {
	for _, dir := range []engine.Direction{engine.Down, engine.Left, engine.Right, engine.Up} {
		if eng.CanMove(dir) {
			return dir, true
		}
	}
	return "", false
}

func strategyByName(name string) (Strategy, error) {
	switch name {
	case "random":
		return RandomStrategy{}, nil
	case "corner":
		return CornerStrategy{}, nil
	}
	return nil, fmt.Errorf("unknown strategy %q, use random or corner", name)
}

// Stats summarises the simulated games of one configuration
type Stats struct {
	ConfigID  string
	Name      string
	Games     int
	AvgScore  float64
	BestScore int
	BestTile  int
	AvgLevel  float64
	AvgMoves  float64
	FourShare float64
}

// GameResult is the outcome of one simulated game
type GameResult struct {
	Score    int
	Level    int
	BestTile int
	Moves    int
	Spawns   int
	Fours    int
}

// playGame runs one game to the end. When the active face has no move left the
// game switches to the next face that still has one.
func playGame(eng *engine.GameEngine, strategy Strategy, rng *rand.Rand) GameResult {
	var result GameResult

	for !eng.IsGameOver() && result.Moves < maxMovesPerGame {
		dir, ok := strategy.Next(eng, rng)
		if !ok {
			if !switchFace(eng) {
				break
			}
			continue
		}

		outcome := eng.Move(dir)
		result.Moves++
		if outcome.Spawned != nil {
			result.Spawns++
			if outcome.Spawned.Value == 4 {
				result.Fours++
			}
		}
	}

	result.Score = eng.GetScore()
	result.Level = eng.GetLevel()
	result.BestTile = eng.HighestTile()
	return result
}

func switchFace(eng *engine.GameEngine) bool {
	faces := len(eng.GetState().Faces)
	for step := 1; step < faces; step++ {
		face := (eng.ActiveFace() + step) % faces
		if err := eng.SelectFace(face); err != nil {
			return false
		}
		if len(eng.GetPossibleMoves()) > 0 {
			return true
		}
	}
	return false
}

// simulate plays games with cfg, seeding each game from seed so runs are repeatable
func simulate(ctx context.Context, configID string, cfg *engine.GameConfig, strategy Strategy, games int, seed uint64) (Stats, error) {
	stats := Stats{ConfigID: configID, Name: cfg.Name, Games: games}
	var totalScore, totalLevel, totalMoves, spawns, fours int

	for i := 0; i < games; i++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		rng := rand.New(rand.NewPCG(seed, uint64(i)))
		eng, err := engine.NewEngineWithRand(cfg, rng)
		if err != nil {
			return stats, fmt.Errorf("config %s: %w", configID, err)
		}

		result := playGame(eng, strategy, rng)
		totalScore += result.Score
		totalLevel += result.Level
		totalMoves += result.Moves
		spawns += result.Spawns
		fours += result.Fours
		stats.BestScore = max(stats.BestScore, result.Score)
		stats.BestTile = max(stats.BestTile, result.BestTile)
	}

	if games > 0 {
		stats.AvgScore = float64(totalScore) / float64(games)
		stats.AvgLevel = float64(totalLevel) / float64(games)
		stats.AvgMoves = float64(totalMoves) / float64(games)
	}
	if spawns > 0 {
		stats.FourShare = float64(fours) / float64(spawns)
	}
	return stats, nil
}

// analyzeAll simulates every valid configuration in configDir, at most workers at a time.
// Results keep the sorted order of the configuration ids.
func analyzeAll(ctx context.Context, configDir string, strategy Strategy, games int, seed uint64, workers int) ([]Stats, error) {
	manager, err := config.NewManager(configDir)
	if err != nil {
		return nil, err
	}
	infos, err := manager.ListConfigs()
	if err != nil {
		return nil, err
	}

	results := make([]Stats, len(infos))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, info := range infos {
		g.Go(func() error {
			cfg, err := manager.LoadConfig(info.ConfigID)
			if err != nil {
				return err
			}
			log.Debug().Str("config", info.ConfigID).Int("games", games).Msg("simulating")

			stats, err := simulate(ctx, info.ConfigID, cfg, strategy, games, seed)
			if err != nil {
				return err
			}
			results[i] = stats
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func printStats(w io.Writer, strategy string, stats []Stats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "Strategy: %s\n\n", strategy)
	fmt.Fprintln(tw, "CONFIG\tGAMES\tAVG SCORE\tBEST SCORE\tBEST TILE\tAVG LEVEL\tMOVES/GAME\tFOURS\t")
	for _, s := range stats {
		fmt.Fprintf(tw, "%s\t%d\t%.0f\t%d\t%d\t%.1f\t%.0f\t%.1f%%\t\n",
			s.ConfigID, s.Games, s.AvgScore, s.BestScore, s.BestTile, s.AvgLevel, s.AvgMoves, s.FourShare*100)
	}
	return tw.Flush()
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "simulate games for every configuration and print statistics",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "directory containing game configurations",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.IntFlag{
				Name:  "games",
				Value: 20,
				Usage: "games to simulate per configuration",
			},
			&cli.StringFlag{
				Name:  "strategy",
				Value: "random",
				Usage: "move strategy: random or corner",
			},
			&cli.Uint64Flag{
				Name:  "seed",
				Value: 2048,
				Usage: "random seed, equal seeds give equal results",
			},
			&cli.IntFlag{
				Name:  "workers",
				Value: 4,
				Usage: "configurations simulated at the same time",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if cmd.Bool("debug") {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}

			strategy, err := strategyByName(cmd.String("strategy"))
			if err != nil {
				return err
			}

			stats, err := analyzeAll(ctx, cmd.String("config-dir"), strategy,
				cmd.Int("games"), cmd.Uint64("seed"), cmd.Int("workers"))
			if err != nil {
				return err
			}
			return printStats(cmd.Root().Writer, strategy.Name(), stats)
		},
	}
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("analyze failed")
	}
}
