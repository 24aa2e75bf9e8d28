package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"clipstream/internal/config"
	"clipstream/internal/core/domain"
	"clipstream/internal/core/port"
)

// Adapter implements probing, thumbnail extraction and transcoding on
// top of the ffmpeg/ffprobe binaries.
type Adapter struct {
	cfg    config.FFmpegConfig
	runner Runner
	logger *slog.Logger
}

func NewAdapter(cfg config.FFmpegConfig, runner Runner, logger *slog.Logger) *Adapter {
	return &Adapter{cfg: cfg, runner: runner, logger: logger}
}

var (
	_ port.Prober      = (*Adapter)(nil)
	_ port.Thumbnailer = (*Adapter)(nil)
	_ port.Transcoder  = (*Adapter)(nil)
)

type ffprobeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width,omitempty"`
		Height    int    `json:"height,omitempty"`
		Duration  string `json:"duration,omitempty"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
}

// Probe extracts stream metadata with ffprobe.
func (a *Adapter) Probe(ctx context.Context, path string) (*port.VideoInfo, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}

	output, err := a.runner.Run(ctx, a.cfg.FFprobePath, args...)
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probed ffprobeOutput
	if err := json.Unmarshal(output, &probed); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	info := &port.VideoInfo{}
	if probed.Format.Duration != "" {
		if d, parseErr := strconv.ParseFloat(probed.Format.Duration, 64); parseErr == nil {
			info.DurationSec = d
		}
	}
	if probed.Format.BitRate != "" {
		if b, parseErr := strconv.Atoi(probed.Format.BitRate); parseErr == nil {
			info.BitrateKbps = b / 1000
		}
	}
	for _, stream := range probed.Streams {
		if stream.CodecType != "video" || info.Width != 0 {
			continue
		}
		info.Width = stream.Width
		info.Height = stream.Height
		if info.DurationSec == 0 && stream.Duration != "" {
			if d, parseErr := strconv.ParseFloat(stream.Duration, 64); parseErr == nil {
				info.DurationSec = d
			}
		}
	}

	return info, nil
}

// ExtractFrame decodes the frame at offsetSec, scales it to width and
// re-encodes it as JPEG at destPath.
func (a *Adapter) ExtractFrame(ctx context.Context, sourcePath, destPath string, offsetSec float64, width, quality int) error {
	args := []string{
		"-y",
		"-ss", fmt.Sprintf("%.2f", offsetSec),
		"-i", sourcePath,
		"-vframes", "1",
		"-vf", fmt.Sprintf("scale=%d:-1", width),
		"-q:v", strconv.Itoa(quality),
		destPath,
	}

	if out, err := a.runner.Run(ctx, a.cfg.FFmpegPath, args...); err != nil {
		return fmt.Errorf("extract frame at %.2fs: %w: %s", offsetSec, err, string(out))
	}
	return nil
}

// Transcode re-encodes sourcePath to destPath with the tier's quality,
// bitrate and resolution caps, streaming ffmpeg's -progress output to
// report a completion fraction. This runs the process directly rather
// than through the Runner because progress needs stdout while ffmpeg is
// still running.
func (a *Adapter) Transcode(ctx context.Context, sourcePath, destPath string, tier domain.CompressionTier, onProgress func(float64)) error {
	var durationUs int64
	if info, err := a.Probe(ctx, sourcePath); err == nil && info.DurationSec > 0 {
		durationUs = int64(info.DurationSec * 1e6)
	}

	args := []string{
		"-y",
		"-i", sourcePath,
		"-vf", scaleFilter(tier),
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", strconv.Itoa(crfFor(tier.Quality)),
		"-b:v", fmt.Sprintf("%dk", tier.BitrateKbps),
		"-maxrate", fmt.Sprintf("%dk", tier.BitrateKbps*3/2),
		"-bufsize", fmt.Sprintf("%dk", tier.BitrateKbps*2),
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		"-nostats",
		"-loglevel", "error",
		"-progress", "pipe:1",
		destPath,
	}

	cmd := exec.CommandContext(ctx, a.cfg.FFmpegPath, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "out_time_us="):
			if durationUs <= 0 || onProgress == nil {
				continue
			}
			if us, parseErr := strconv.ParseInt(strings.TrimPrefix(line, "out_time_us="), 10, 64); parseErr == nil {
				frac := float64(us) / float64(durationUs)
				if frac > 1 {
					frac = 1
				}
				onProgress(frac)
			}
		case line == "progress=end":
			if onProgress != nil {
				onProgress(1)
			}
		}
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("transcode %s: %w: %s", tier.Name, err, stderr.String())
	}
	return nil
}

// scaleFilter caps the output at the tier resolution without upscaling,
// keeping aspect ratio and even dimensions.
func scaleFilter(tier domain.CompressionTier) string {
	return fmt.Sprintf("scale='min(%d,iw)':'min(%d,ih)':force_original_aspect_ratio=decrease:force_divisible_by=2",
		tier.MaxWidth, tier.MaxHeight)
}

// crfFor maps the tier's [0,1] quality to an x264 CRF value (lower is
// better quality).
func crfFor(quality float64) int {
	crf := int(18 + (1-quality)*14)
	if crf < 18 {
		crf = 18
	}
	if crf > 32 {
		crf = 32
	}
	return crf
}
