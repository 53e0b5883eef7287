package bootstrap

import (
	"fmt"
	"strconv"
	"strings"

	"media-library/internal/mediatypes"
)

// MediaKind distinguishes photos from videos.
type MediaKind = mediatypes.MediaKind

const (
	Photo = mediatypes.Photo
	Video = mediatypes.Video
)

// Job names a maintenance job.
type Job int

const (
	JobScan Job = iota + 1
	JobEnrich
	JobMotionPhotoExtract
	JobThumbnail
	JobClean
	JobDetectFaces
	JobRecognizeFaces
	JobTranscode
)

var jobNames = map[Job]string{
	JobScan:               "scan",
	JobEnrich:             "enrich",
	JobMotionPhotoExtract: "motion-photo-extract",
	JobThumbnail:          "thumbnail",
	JobClean:              "clean",
	JobDetectFaces:        "detect-faces",
	JobRecognizeFaces:     "recognize-faces",
	JobTranscode:          "transcode",
}

func (j Job) String() string {
	if name, ok := jobNames[j]; ok {
		return name
	}
	return "job(" + strconv.Itoa(int(j)) + ")"
}

// perMedia reports whether the job runs separately for photos and videos.
func (j Job) perMedia() bool {
	switch j {
	case JobScan, JobEnrich, JobThumbnail, JobClean:
		return true
	}
	return false
}

// JobKind identifies what a task does. It is comparable and used as the
// dispatch table key. Media is only meaningful for per-media jobs and is
// left at its zero value otherwise, so constructors must be used.
type JobKind struct {
	Job   Job
	Media MediaKind
}

func Scan(m MediaKind) JobKind      { return JobKind{Job: JobScan, Media: m} }
func Enrich(m MediaKind) JobKind    { return JobKind{Job: JobEnrich, Media: m} }
func Thumbnail(m MediaKind) JobKind { return JobKind{Job: JobThumbnail, Media: m} }
func Clean(m MediaKind) JobKind     { return JobKind{Job: JobClean, Media: m} }
func MotionPhotoExtract() JobKind   { return JobKind{Job: JobMotionPhotoExtract} }
func DetectFaces() JobKind          { return JobKind{Job: JobDetectFaces} }
func RecognizeFaces() JobKind       { return JobKind{Job: JobRecognizeFaces} }
func Transcode() JobKind            { return JobKind{Job: JobTranscode} }

// String renders the kind as used in logs and metric labels, e.g.
// "scan(photo)" or "transcode".
func (k JobKind) String() string {
	if k.Job.perMedia() {
		return fmt.Sprintf("%s(%s)", k.Job, k.Media)
	}
	return k.Job.String()
}

// ParseJobKind is the inverse of JobKind.String.
func ParseJobKind(s string) (JobKind, error) {
	name, media, hasMedia := strings.Cut(strings.TrimSuffix(s, ")"), "(")
	for job, jobName := range jobNames {
		if jobName != name {
			continue
		}
		if job.perMedia() != hasMedia {
			break
		}
		if !hasMedia {
			return JobKind{Job: job}, nil
		}
		m, err := mediatypes.ParseMediaKind(media)
		if err != nil {
			return JobKind{}, fmt.Errorf("invalid job kind %q: %w", s, err)
		}
		return JobKind{Job: job, Media: m}, nil
	}
	return JobKind{}, fmt.Errorf("invalid job kind %q", s)
}

// Task is one queued unit of work. PictureID narrows DetectFaces to a
// single picture; zero means all pictures and it is ignored by other jobs.
type Task struct {
	Kind      JobKind
	PictureID int64
}

// NewTask returns a task for kind covering the whole library.
func NewTask(kind JobKind) Task {
	return Task{Kind: kind}
}

func (t Task) String() string {
	if t.PictureID != 0 {
		return fmt.Sprintf("%s[picture %d]", t.Kind, t.PictureID)
	}
	return t.Kind.String()
}

// ItemCount is what a job reports on completion: either nothing (the job
// does not track what it changed) or a number of changed items.
type ItemCount struct {
	n       int
	counted bool
}

// Uncounted is the count of a job that does not track changed items.
func Uncounted() ItemCount { return ItemCount{} }

// Items is the count of a job that changed n items. Negative n is treated as 0.
func Items(n int) ItemCount {
	if n < 0 {
		n = 0
	}
	return ItemCount{n: n, counted: true}
}

// Count returns the number of changed items and whether the job counted.
func (c ItemCount) Count() (int, bool) { return c.n, c.counted }

// Changed reports whether the library needs a refresh because of this job.
func (c ItemCount) Changed() bool { return c.counted && c.n > 0 }

func (c ItemCount) String() string {
	if !c.counted {
		return "uncounted"
	}
	return strconv.Itoa(c.n)
}

// StartupTasks is the fixed pipeline run when the service starts. The face
// jobs are only included when face detection is on.
func StartupTasks(faces FaceDetectionMode) []Task {
	tasks := RescanTasks()
	if faces == FaceDetectionOn {
		tasks = append(tasks, NewTask(DetectFaces()), NewTask(RecognizeFaces()))
	}
	return tasks
}

// RescanTasks picks up filesystem changes: scan, enrich, thumbnail and clean
// for both media kinds, then motion-photo extraction.
func RescanTasks() []Task {
	var tasks []Task
	for _, job := range []func(MediaKind) JobKind{Scan, Enrich, Thumbnail, Clean} {
		for _, m := range mediatypes.Kinds {
			tasks = append(tasks, NewTask(job(m)))
		}
	}
	return append(tasks, NewTask(MotionPhotoExtract()))
}

// FaceDetectionMode gates whether face jobs are ever scheduled.
type FaceDetectionMode int

const (
	FaceDetectionOff FaceDetectionMode = iota
	FaceDetectionOn
)

func (m FaceDetectionMode) String() string {
	if m == FaceDetectionOn {
		return "on"
	}
	return "off"
}

// ParseFaceDetectionMode accepts on/off and the usual boolean spellings.
func ParseFaceDetectionMode(s string) (FaceDetectionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "1", "yes", "enabled":
		return FaceDetectionOn, nil
	case "off", "false", "0", "no", "disabled", "":
		return FaceDetectionOff, nil
	}
	return FaceDetectionOff, fmt.Errorf("invalid face detection mode %q", s)
}

// Settings is the runtime configuration the orchestrator consults.
type Settings interface {
	FaceDetection() FaceDetectionMode
}
