package speech

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

const (
	wordsPerMinute = 150
	playbackBuffer = 2 * time.Second
)

// EstimateDuration approximates how long text takes to speak at 150 words per
// minute, plus a fixed buffer.
func EstimateDuration(text string) time.Duration {
	words := len(strings.Fields(text))
	return time.Duration(words)*time.Minute/wordsPerMinute + playbackBuffer
}

// DefaultCommand is the platform text-to-speech program.
func DefaultCommand() string {
	if runtime.GOOS == "darwin" {
		return "say"
	}
	return "espeak"
}

// CommandSpeaker speaks by running a local TTS program with the text as its
// final argument, after "--" so text starting with "-" is never read as a flag.
type CommandSpeaker struct {
	Command string
	Args    []string
	// Slack is added to the estimated duration to form the per-utterance timeout.
	Slack time.Duration
}

func NewCommandSpeaker(command string, args ...string) *CommandSpeaker {
	if command == "" {
		command = DefaultCommand()
	}
	return &CommandSpeaker{Command: command, Args: args, Slack: 10 * time.Second}
}

func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	ctx, cancel := context.WithTimeout(ctx, EstimateDuration(text)+s.Slack)
	defer cancel()

	args := append(append([]string{}, s.Args...), "--", text)
	out, err := exec.CommandContext(ctx, s.Command, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w: %s", s.Command, err, strings.TrimSpace(string(out)))
	}
	return nil
}
