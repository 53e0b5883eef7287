// Package transcoder probes videos and transcodes the ones browsers cannot
// play into H.264/AAC MP4 files.
//
// Both operations shell out to FFmpeg (ffprobe and ffmpeg), which must be
// installed and available in the system PATH. Running transcodes are bound
// to their context: cancelling it kills the ffmpeg process.
package transcoder
