package workers

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/careerarchitect/backend/internal/storage"
)

type ArchiveJob struct {
	ObjectName  string
	ContentType string
	Data        []byte
}

// ArchivePool streams accepted uploads to object storage in the background.
// Archival is best-effort: a full queue drops the job and submissions never
// wait on an upload.
type ArchivePool struct {
	Uploader   storage.Uploader
	Logger     *logrus.Logger
	NumWorkers int
	QueueSize  int

	jobs chan ArchiveJob
}

func (p *ArchivePool) Start(ctx context.Context) error {
	if p.Uploader == nil {
		return errors.New("ArchivePool missing dependency: Uploader must be set")
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 2
	}
	if p.QueueSize <= 0 {
		p.QueueSize = 64
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	p.jobs = make(chan ArchiveJob, p.QueueSize)
	for i := 0; i < p.NumWorkers; i++ {
		go p.run(ctx)
	}
	return nil
}

func (p *ArchivePool) Enqueue(objectName, contentType string, data []byte) bool {
	if p.jobs == nil {
		return false
	}
	select {
	case p.jobs <- ArchiveJob{ObjectName: objectName, ContentType: contentType, Data: data}:
		return true
	default:
		return false
	}
}

func (p *ArchivePool) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-p.jobs:
			// Uploads run on their own deadline: an inbound disconnect must
			// not cancel an archive already in flight.
			uctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			_, err := p.Uploader.Upload(uctx, job.ObjectName, job.ContentType, bytes.NewReader(job.Data))
			cancel()
			if err != nil {
				p.Logger.WithError(err).WithFields(logrus.Fields{
					"object": job.ObjectName,
					"bytes":  len(job.Data),
				}).Warn("archive upload failed")
			}
		}
	}
}
