package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wricardo/mcp-training/mergemania/game/engine"
)

const help = `Commands:
  up, down, left, right (or w, s, a, d)   move the active face
  face N                                  switch to face N
  reset                                   start a new game
  help                                    show this text
  quit                                    leave`

// Play reads one command per line from r and writes the board after every turn to w.
// It returns nil at end of input or on quit.
func Play(r io.Reader, w io.Writer, eng engine.Engine) error {
	out := bufio.NewWriter(w)
	defer out.Flush()

	render(out, eng.GetState())
	fmt.Fprintln(out, "Type help for commands.")
	out.Flush()

	scanner := bufio.NewScanner(r)
	for {
		fmt.Fprint(out, "> ")
		out.Flush()

		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		quit, err := execute(out, eng, line)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
		if quit {
			fmt.Fprintf(out, "Final score: %d\n", eng.GetScore())
			return nil
		}
	}
}

func execute(w io.Writer, eng engine.Engine, line string) (bool, error) {
	fields := strings.Fields(strings.ToLower(line))

	switch fields[0] {
	case "quit", "q", "exit":
		return true, nil
	case "help", "?":
		fmt.Fprintln(w, help)
		return false, nil
	case "reset":
		render(w, eng.Reset())
		return false, nil
	case "face":
		if len(fields) != 2 {
			return false, errors.New("usage: face N")
		}
		face, err := strconv.Atoi(fields[1])
		if err != nil {
			return false, fmt.Errorf("%w: %q", engine.ErrInvalidFace, fields[1])
		}
		if err := eng.SelectFace(face); err != nil {
			return false, err
		}
		render(w, eng.GetState())
		return false, nil
	}

	direction, err := engine.ParseDirection(line)
	if err != nil {
		return false, err
	}

	outcome := eng.Move(direction)
	state := eng.GetState()
	if !outcome.Moved {
		fmt.Fprintf(w, "No change (%s)\n", outcome.Reason)
	}
	render(w, state)
	return false, nil
}

func render(w io.Writer, state *engine.GameState) {
	fmt.Fprintf(w, "\nScore %d  Level %d  Best %d\n", state.Score, state.Level, state.HighScore)
	if len(state.Faces) > 1 {
		fmt.Fprintf(w, "Face %d of %d\n", state.ActiveFace, len(state.Faces))
	}

	face := state.Faces[state.ActiveFace]
	fmt.Fprintln(w, face.Tiles.Format(state.GridSize))

	if state.Message != "" {
		fmt.Fprintln(w, state.Message)
	}
	if state.GameOver {
		fmt.Fprintln(w, "GAME OVER (reset to play again)")
	}
}
