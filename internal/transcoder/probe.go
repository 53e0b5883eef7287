package transcoder

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// VideoInfo is what ffprobe reports about a video.
type VideoInfo struct {
	Duration        time.Duration
	Width           int
	Height          int
	VideoCodec      string
	AudioCodec      string
	ContainerFormat string
	CreatedAt       time.Time
	NeedsTranscode  bool
}

var compatibleCodecs = map[string]bool{
	"h264": true,
	"vp8":  true,
	"vp9":  true,
	"av1":  true,
}

var compatibleContainers = map[string]bool{
	"mp4":  true,
	"m4v":  true,
	"webm": true,
	"ogg":  true,
}

type probeOutput struct {
	Format struct {
		Duration       string `json:"duration"`
		FormatLongName string `json:"format_long_name"`
	} `json:"format"`
	Streams []struct {
		CodecName string `json:"codec_name"`
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		Tags      struct {
			CreationTime string `json:"creation_time"`
		} `json:"tags"`
	} `json:"streams"`
}

// Probe reads duration, dimensions, codecs and creation time of a video.
func (t *Transcoder) Probe(ctx context.Context, path string) (*VideoInfo, error) {
	res, err := t.runner.Run(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_entries", "format=duration,format_long_name:stream_tags=creation_time:stream=codec_name,codec_type,width,height",
		"-i", path,
	)
	if err != nil {
		return nil, fmt.Errorf("ffprobe error: %w - %s", err, res.Stderr)
	}
	return parseProbe(res.Stdout, path)
}

func parseProbe(data []byte, path string) (*VideoInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output for %s: %w", path, err)
	}

	info := &VideoInfo{ContainerFormat: out.Format.FormatLongName}
	if secs, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		info.Duration = time.Duration(secs * float64(time.Second)).Round(time.Millisecond)
	}

	var sawVideo, sawAudio bool
	for _, s := range out.Streams {
		switch {
		case s.CodecType == "video" && !sawVideo:
			sawVideo = true
			info.VideoCodec = s.CodecName
			info.Width, info.Height = s.Width, s.Height
			if ts, err := time.Parse(time.RFC3339Nano, s.Tags.CreationTime); err == nil {
				info.CreatedAt = ts.UTC()
			}
		case s.CodecType == "audio" && !sawAudio:
			sawAudio = true
			info.AudioCodec = s.CodecName
		}
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	info.NeedsTranscode = !compatibleCodecs[info.VideoCodec] || !compatibleContainers[ext]
	return info, nil
}
