package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported format: must be mp4, gif, or webm")
	ErrNoFrames          = errors.New("no frames")
	ErrCancelled         = errors.New("export cancelled")
)

// framePattern names rendered frames inside a job directory.
const framePattern = "frame_%04d.png"

// ValidFormat reports whether format can be encoded.
func ValidFormat(format string) bool {
	switch format {
	case "mp4", "gif", "webm":
		return true
	}
	return false
}

// ContentType returns the MIME type of an encoded format.
func ContentType(format string) string {
	switch format {
	case "mp4":
		return "video/mp4"
	case "gif":
		return "image/gif"
	default:
		return "video/webm"
	}
}

// Encoder turns a directory of numbered PNG frames into a video by running
// ffmpeg.
type Encoder struct {
	ffmpegPath string
}

func NewEncoder(ffmpegPath string) *Encoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Encoder{ffmpegPath: ffmpegPath}
}

// Encode encodes dir/frame_NNNN.png at fps and returns the output path,
// which lives in dir.
func (e *Encoder) Encode(ctx context.Context, dir, format string, fps int) (string, error) {
	if !ValidFormat(format) {
		return "", ErrUnsupportedFormat
	}
	input := filepath.Join(dir, framePattern)
	rate := strconv.Itoa(fps)
	output := filepath.Join(dir, "output."+format)

	var err error
	switch format {
	case "mp4":
		err = e.run(ctx,
			"-framerate", rate,
			"-i", input,
			"-c:v", "libx264",
			"-pix_fmt", "yuv420p",
			"-crf", "18",
			"-preset", "fast",
			"-movflags", "+faststart",
			output,
		)

	case "gif":
		// Two-pass GIF: generate palette then apply
		palette := filepath.Join(dir, "palette.png")
		err = e.run(ctx,
			"-framerate", rate,
			"-i", input,
			"-vf", "palettegen=stats_mode=diff",
			palette,
		)
		if err == nil {
			err = e.run(ctx,
				"-framerate", rate,
				"-i", input,
				"-i", palette,
				"-lavfi", "paletteuse=dither=bayer:bayer_scale=5:diff_mode=rectangle",
				output,
			)
		}

	case "webm":
		err = e.run(ctx,
			"-framerate", rate,
			"-i", input,
			"-c:v", "libvpx-vp9",
			"-crf", "30",
			"-b:v", "0",
			"-pix_fmt", "yuva420p",
			output,
		)
	}
	if err != nil {
		return "", err
	}
	return output, nil
}

func (e *Encoder) run(ctx context.Context, args ...string) error {
	// -y overwrites output without prompting
	cmd := exec.CommandContext(ctx, e.ffmpegPath, append([]string{"-y"}, args...)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ErrCancelled
		}
		return fmt.Errorf("ffmpeg: %v: %s", err, stderr.String())
	}
	return nil
}
