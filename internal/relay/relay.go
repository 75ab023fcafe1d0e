package relay

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/studio1767/filerelay/internal/config"
	"github.com/studio1767/filerelay/internal/notify"
	"github.com/studio1767/filerelay/internal/remote"
	"github.com/studio1767/filerelay/internal/report"
	"github.com/studio1767/filerelay/internal/secrets"
)

type WatermarkStore interface {
	Read() (time.Time, bool)
	Write(stamp time.Time) error
}

// Encrypter turns a staged file into an encrypted sibling. Suffix is
// appended to the remote name of every encrypted upload.
type Encrypter interface {
	Encrypt(localPath, recipient string) (string, error)
	Suffix() string
}

// Options holds everything a Relay needs. Encrypter may be nil when
// encryption is disabled; Clock defaults to time.Now.
type Options struct {
	Config      *config.Config
	Source      remote.Store
	Destination remote.Store
	Secrets     secrets.Provider
	Encrypter   Encrypter
	Watermark   WatermarkStore
	Notifier    notify.Notifier
	Logger      log.FieldLogger
	Clock       func() time.Time
}

// Relay moves newly produced files from the source store to the destination
// store, one run at a time.
type Relay struct {
	cfg         *config.Config
	source      remote.Store
	destination remote.Store
	secrets     secrets.Provider
	encrypter   Encrypter
	watermark   WatermarkStore
	notifier    notify.Notifier
	logger      log.FieldLogger
	now         func() time.Time
}

func New(opts Options) *Relay {
	r := &Relay{
		cfg:         opts.Config,
		source:      opts.Source,
		destination: opts.Destination,
		secrets:     opts.Secrets,
		encrypter:   opts.Encrypter,
		watermark:   opts.Watermark,
		notifier:    opts.Notifier,
		logger:      opts.Logger,
		now:         opts.Clock,
	}
	if r.logger == nil {
		r.logger = log.StandardLogger()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

func (r *Relay) pattern() Pattern {
	return Pattern{Prefix: r.cfg.Select.Prefix, Suffix: r.cfg.Select.Suffix}
}

func (r *Relay) credential(id string) (secrets.Credentials, error) {
	if id == "" {
		return secrets.Credentials{}, nil
	}
	return r.secrets.Credential(id)
}

type run struct {
	res      *RunResult
	logger   log.FieldLogger
	sessions []namedSession
}

type namedSession struct {
	name    string
	session remote.Session
}

func (rn *run) enter(state RunState) {
	rn.res.State = state
	rn.logger.WithField("state", state).Debug("Entering state")
}

func (rn *run) open(name string, session remote.Session) {
	rn.sessions = append(rn.sessions, namedSession{name: name, session: session})
}

func (rn *run) closeAll() {
	for i := len(rn.sessions) - 1; i >= 0; i-- {
		ns := rn.sessions[i]
		if err := ns.session.Close(); err != nil {
			rn.logger.WithField("store", ns.name).WithError(err).Warn("Failed to close session")
		}
	}
	rn.sessions = nil
}

// Run performs one complete transfer cycle. It never panics on store
// failures; everything that happened is in the returned result.
func (r *Relay) Run(ctx context.Context) *RunResult {
	res := &RunResult{
		ID:      uuid.NewString(),
		State:   Idle,
		Started: r.now(),
	}
	rn := &run{
		res:    res,
		logger: r.logger.WithField("run", res.ID[:8]),
	}
	defer func() {
		rn.closeAll()
		res.Finished = r.now()
	}()

	rn.logger.Info("Program Started")

	// pre-flight
	srcCreds, err := r.credential(r.cfg.Source.Credential)
	if err != nil {
		return r.abort(ctx, rn, errors.Wrap(err, "resolving source credential"))
	}
	dstCreds, err := r.credential(r.cfg.Destination.Credential)
	if err != nil {
		return r.abort(ctx, rn, errors.Wrap(err, "resolving destination credential"))
	}
	if err := os.MkdirAll(r.cfg.Staging.Directory, 0755); err != nil {
		return r.abort(ctx, rn, errors.Wrap(err, "creating staging directory"))
	}

	res.WatermarkBefore, res.WatermarkKnown = r.watermark.Read()

	// discovery
	rn.enter(Connecting)
	rn.logger.Infof("Connecting to source %s", describe(r.cfg.Source))
	src, err := r.source.Connect(ctx, r.cfg.Source.Endpoint, srcCreds)
	if err != nil {
		return r.abort(ctx, rn, err)
	}
	rn.open("source", src)

	rn.enter(Listing)
	res.ListedAt = r.now()
	entries, err := src.List(ctx)
	if err != nil {
		return r.abort(ctx, rn, err)
	}
	res.Listed = len(entries)

	rn.enter(Selecting)
	if !res.WatermarkKnown {
		rn.logger.Warn("Watermark is unknown; selecting nothing. Set it with 'filerelay watermark set' to resume transfers")
	}
	selected := Select(entries, r.pattern(), res.WatermarkBefore, res.WatermarkKnown)
	rn.logger.Infof("Listed %d files, %d selected", len(entries), len(selected))

	if len(selected) == 0 {
		rn.enter(Done)
		rn.logger.Info("No new files to transfer")
		return res
	}

	for _, entry := range selected {
		res.Candidates = append(res.Candidates, &Candidate{Entry: entry, Outcome: Pending})
	}

	rn.enter(Connecting)
	rn.logger.Infof("Connecting to destination %s", describe(r.cfg.Destination))
	dst, err := r.destination.Connect(ctx, r.cfg.Destination.Endpoint, dstCreds)
	if err != nil {
		return r.abort(ctx, rn, err)
	}
	rn.open("destination", dst)

	// transfer
	rn.enter(ProcessingCandidates)
	for idx, c := range res.Candidates {
		if err := ctx.Err(); err != nil {
			for _, rest := range res.Candidates[idx:] {
				rest.fail("cancelled", err)
			}
			break
		}
		r.process(ctx, rn, src, dst, c)
	}

	rn.closeAll()

	rn.enter(Finalizing)
	r.finalize(ctx, rn)
	rn.enter(Done)

	return res
}

func (r *Relay) process(ctx context.Context, rn *run, src, dst remote.Session, c *Candidate) {
	logger := rn.logger.WithField("file", c.Entry.Name)

	c.LocalPath = StagingPath(r.cfg.Staging.Directory, c.Entry.Name, r.now())
	if err := src.Fetch(ctx, c.Entry.Name, c.LocalPath); err != nil {
		c.fail("download", err)
		logger.WithField("stage", "download").WithError(err).Error("Failed to fetch file")
		return
	}
	c.advance(Downloaded)
	logger.WithField("local", c.LocalPath).Info("Downloaded file")

	upload := c.LocalPath
	remoteName := c.Entry.Name

	if r.cfg.Encryption.Enabled {
		encPath, err := r.encrypter.Encrypt(c.LocalPath, r.cfg.Encryption.Recipient)
		if err != nil {
			c.fail("encrypt", err)
			logger.WithField("stage", "encrypt").WithError(err).Error("Failed to encrypt file")
			return
		}
		c.EncryptedPath = encPath
		c.advance(Encrypted)
		logger.WithField("local", encPath).Info("Encrypted file")

		upload = encPath
		remoteName += r.encrypter.Suffix()
	}

	c.RemotePath = path.Join(r.cfg.Destination.Directory, remoteName)
	if err := dst.Put(ctx, upload, c.RemotePath); err != nil {
		c.fail("upload", err)
		logger.WithField("stage", "upload").WithError(err).Error("Failed to upload file")
		return
	}
	c.advance(Uploaded)
	logger.WithField("remote", c.RemotePath).Info("Uploaded file")

	if r.cfg.Staging.Cleanup {
		for _, staged := range []string{c.LocalPath, c.EncryptedPath} {
			if staged == "" {
				continue
			}
			if err := os.Remove(staged); err != nil {
				logger.WithError(err).Warnf("Failed to remove staged file %s", staged)
			}
		}
	}
}

func (r *Relay) finalize(ctx context.Context, rn *run) {
	res := rn.res

	failed := res.Failed()
	if len(failed) > 0 {
		rn.logger.Errorf("%d of %d files failed; watermark left at %s",
			len(failed), len(res.Candidates), formatStamp(res.WatermarkBefore))
		r.notify(ctx, rn, failureMessage(r.cfg, res))
		return
	}

	next := r.nextWatermark(res)
	if err := r.watermark.Write(next); err != nil {
		res.Err = err
		rn.logger.WithError(err).Error("Files transferred but the watermark could not be recorded")
		r.notify(ctx, rn, failureMessage(r.cfg, res))
		return
	}
	res.WatermarkAfter = next
	res.Advanced = true
	rn.logger.Infof("Watermark advanced to %s", formatStamp(next))

	r.notify(ctx, rn, successMessage(r.cfg, res))
}

// nextWatermark never returns a time before the current watermark. Under
// the "now" policy it is the time of the listing, so files that arrive while
// the run is transferring stay eligible for the next run.
func (r *Relay) nextWatermark(res *RunResult) time.Time {
	next := res.ListedAt
	if r.cfg.Watermark.Policy == config.PolicyMaxMtime {
		next = time.Time{}
		for _, c := range res.Candidates {
			if c.Entry.ModTime.After(next) {
				next = c.Entry.ModTime
			}
		}
	}
	if next.Before(res.WatermarkBefore) {
		next = res.WatermarkBefore
	}
	return next
}

func (r *Relay) abort(ctx context.Context, rn *run, err error) *RunResult {
	rn.res.State = Aborted
	rn.res.Err = err
	rn.logger.WithError(err).Error("Fatal error occurred")

	rn.closeAll()
	r.notify(ctx, rn, failureMessage(r.cfg, rn.res))
	return rn.res
}

func (r *Relay) notify(ctx context.Context, rn *run, msg notify.Message) {
	if r.notifier == nil || len(r.cfg.Notify.DistributionList) == 0 {
		return
	}

	if r.cfg.Notify.AttachReport && len(rn.res.Candidates) > 0 {
		rpath := filepath.Join(r.cfg.Staging.Directory, fmt.Sprintf("%s_report_%s_%s.csv",
			strings.ReplaceAll(r.cfg.Program, " ", "_"),
			rn.res.Started.Format("20060102_150405"),
			rn.res.ID[:8]))
		if err := report.Write(rpath, reportRows(rn.res)); err != nil {
			rn.logger.WithError(err).Warn("Failed to write run report")
		} else {
			msg.Attachments = append(msg.Attachments, rpath)
		}
	}

	rn.res.Notified += notify.Distribute(ctx, r.notifier, rn.logger, r.cfg.Notify.DistributionList, msg)
}

// NotifyFailure reports an error that stopped a run before it could start,
// such as unreadable secrets. It returns the number of messages sent.
func NotifyFailure(ctx context.Context, n notify.Notifier, cfg *config.Config, logger log.FieldLogger, err error) int {
	if n == nil || len(cfg.Notify.DistributionList) == 0 {
		return 0
	}
	res := &RunResult{State: Aborted, Err: err}
	return notify.Distribute(ctx, n, logger, cfg.Notify.DistributionList, failureMessage(cfg, res))
}

func reportRows(res *RunResult) []report.Row {
	var rows []report.Row
	for _, c := range res.Candidates {
		row := report.Row{
			Name:    c.Entry.Name,
			Size:    c.Entry.Size,
			ModTime: c.Entry.ModTime,
			Outcome: c.Outcome.String(),
			Stage:   c.Stage,
		}
		if c.Err != nil {
			row.Error = c.Err.Error()
		}
		rows = append(rows, row)
	}
	return rows
}

// StagingPath names the local copy of a remote file. The timestamp and a
// random fragment keep concurrent and earlier runs from colliding.
func StagingPath(dir, name string, now time.Time) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(filepath.Base(name), ext)
	return filepath.Join(dir, fmt.Sprintf("%s_%s_%s%s",
		base, now.Format("20060102_150405"), uuid.NewString()[:8], ext))
}

// Preview is what a run would select, without transferring anything.
type Preview struct {
	Listed    []remote.Entry
	Selected  []remote.Entry
	Watermark time.Time
	Known     bool
}

func (r *Relay) Preview(ctx context.Context) (*Preview, error) {
	creds, err := r.credential(r.cfg.Source.Credential)
	if err != nil {
		return nil, errors.Wrap(err, "resolving source credential")
	}

	pv := &Preview{}
	pv.Watermark, pv.Known = r.watermark.Read()

	src, err := r.source.Connect(ctx, r.cfg.Source.Endpoint, creds)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	pv.Listed, err = src.List(ctx)
	if err != nil {
		return nil, err
	}
	pv.Selected = Select(pv.Listed, r.pattern(), pv.Watermark, pv.Known)

	return pv, nil
}

func describe(ep config.Endpoint) string {
	switch ep.Protocol {
	case "s3":
		return fmt.Sprintf("s3://%s/%s", ep.Bucket, strings.TrimPrefix(ep.Directory, "/"))
	case "file":
		return ep.Directory
	}
	return fmt.Sprintf("%s://%s%s", ep.Protocol, ep.Address(), ep.Directory)
}

func formatStamp(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.UTC().Format(time.RFC3339)
}
