// Package memory keeps the process inside its container memory limit.
//
// [ApplyLimit] sets the Go soft memory limit (GOMEMLIMIT) from the
// container limit, leaving headroom for memory the Go heap does not see:
// libvips buffers, ffmpeg child processes and sqlite pages. Call it at the
// top of main before significant allocations.
//
// The container limit is taken from, in order:
//
//   - GOMEMLIMIT: already applied by the runtime, only reported
//   - MEMORY_LIMIT: bytes, e.g. from the Kubernetes Downward API
//   - the cgroup v2 memory.max file, then the cgroup v1 limit file
//
// MEMORY_RATIO (default 0.85) is the share of the container limit given to
// the Go heap.
//
// A [Gate] samples heap usage against the limit. Above the critical mark it
// closes and [Gate.Wait] blocks until usage falls back under the high mark.
// Thumbnail workers wait on the gate before decoding each file. A nil Gate
// never blocks.
package memory
