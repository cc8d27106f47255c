package main

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/tickline"
	"github.com/aretw0/tickline/pkg/adapters/audio"
	"github.com/aretw0/tickline/pkg/core"
	"github.com/aretw0/tickline/pkg/timing"
)

var playFrom float64

var (
	speakerOnce sync.Once
	speakerRate beep.SampleRate
	speakerErr  error
)

// speakerLoader opens the cached music and hands it to the speaker. The
// speaker keeps the rate of the first track; later tracks are resampled to
// it. The track starts paused; the clock unpauses it.
func speakerLoader(path string) (timing.Audio, error) {
	track, err := audio.Open(path)
	if err != nil {
		return nil, err
	}
	speakerOnce.Do(func() {
		speakerRate = track.Format().SampleRate
		speakerErr = speaker.Init(speakerRate, speakerRate.N(time.Second/60))
	})
	if speakerErr != nil {
		track.Close()
		return nil, fmt.Errorf("unable to open speaker: %w", speakerErr)
	}
	speaker.Play(toRate(track, track.Format().SampleRate, speakerRate))
	return track, nil
}

// toRate resamples s when its rate differs from the speaker's.
func toRate(s beep.Streamer, from, to beep.SampleRate) beep.Streamer {
	if from == to {
		return s
	}
	return beep.Resample(4, from, to, s)
}

// applyKey runs the transport action bound to key. Keys without a binding
// do nothing.
func applyKey(svc *core.Service, key keyboard.KeyEvent, beat float64) error {
	switch key.Key {
	case keyboard.KeySpace:
		if svc.Playback().IsRunning {
			return svc.Stop()
		}
		return svc.Start()
	case keyboard.KeyArrowLeft, keyboard.KeyArrowRight:
		step := beat
		if key.Key == keyboard.KeyArrowLeft {
			step = -step
		}
		pos := svc.Playback().CurrentTime + step
		if pos < 0 {
			pos = 0
		}
		return svc.Seek(pos)
	}
	return nil
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the chart music against the tick clock",
	Long: `Play the cached chart with its music. Space starts and stops, the arrow keys
move a beat while stopped, and Esc or q quits.`,
	Run: func(cmd *cobra.Command, args []string) {
		svc := openSession(tickline.WithAudioLoader(speakerLoader))
		defer svc.Close()

		if playFrom > 0 {
			if err := svc.Seek(playFrom); err != nil {
				fatal("Invalid start position", err)
			}
		}

		keys, err := keyboard.GetKeys(16)
		if err != nil {
			fatal("Unable to open keyboard", err)
		}
		defer func() {
			if err := keyboard.Close(); err != nil {
				slog.Warn("unable to close keyboard", "error", err)
			}
		}()

		tempo := svc.Document().Tempo()
		length := float64(svc.Document().ChartLength())
		status := term.IsTerminal(int(os.Stdout.Fd()))
		width := 80
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}

		ticker := time.NewTicker(time.Second / 60)
		defer ticker.Stop()

		for {
			select {
			case key, ok := <-keys:
				if !ok || key.Key == keyboard.KeyEsc || key.Rune == 'q' {
					fmt.Println()
					return
				}
				if err := applyKey(svc, key, float64(tempo.TickPerBeat)); err != nil {
					slog.Debug("key ignored", "error", err)
				}
			case <-ticker.C:
			}

			pos := svc.Playback().CurrentTime
			if svc.Playback().IsRunning {
				sampled, err := svc.Sample()
				if err != nil {
					fatal("Clock failed", err)
				}
				pos = sampled
				if length > 0 && pos >= length {
					if err := svc.Stop(); err != nil {
						slog.Warn("failed to stop at chart end", "error", err)
					}
				}
			}
			if status {
				line := fmt.Sprintf("tick %9.2f  beat %7.2f  %7.3fs", pos, pos/float64(tempo.TickPerBeat), tempo.TicksToSeconds(pos))
				if len(line) > width-1 {
					line = line[:width-1]
				}
				fmt.Printf("\r%s", line)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().Float64Var(&playFrom, "from", 0, "Start tick")
}
