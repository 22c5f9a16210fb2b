package worker

import (
	"context"
	"sort"
	"time"

	"github.com/coursesim/simcore/internal/aioracle"
	"github.com/coursesim/simcore/internal/domain"
	simerrors "github.com/coursesim/simcore/internal/domain/errors"
	"github.com/coursesim/simcore/internal/queue"
)

type fakeJobRepo struct {
	jobs map[domain.JobID]domain.Job
}

func newFakeJobRepo() *fakeJobRepo { return &fakeJobRepo{jobs: map[domain.JobID]domain.Job{}} }

func (r *fakeJobRepo) CreateJob(ctx context.Context, job domain.Job) error {
	r.jobs[job.ID] = job
	return nil
}
func (r *fakeJobRepo) GetJob(ctx context.Context, id domain.JobID) (domain.Job, error) {
	j, ok := r.jobs[id]
	if !ok {
		return domain.Job{}, simerrors.Internal("not found", nil)
	}
	return j, nil
}
func (r *fakeJobRepo) FindActiveJob(ctx context.Context, scenarioID domain.ScenarioID, userID domain.UserID) (*domain.Job, error) {
	for _, j := range r.jobs {
		if j.ScenarioID == scenarioID && j.UserID == userID && j.State != domain.JobFailed {
			c := j
			return &c, nil
		}
	}
	return nil, nil
}
func (r *fakeJobRepo) ListPendingJobs(ctx context.Context, scenarioID domain.ScenarioID) ([]domain.Job, error) {
	var out []domain.Job
	for _, j := range r.jobs {
		if j.ScenarioID == scenarioID && j.State == domain.JobPending {
			out = append(out, j)
		}
	}
	return out, nil
}
func (r *fakeJobRepo) ListJobsByBatch(ctx context.Context, batchID domain.BatchID) ([]domain.Job, error) {
	var out []domain.Job
	for _, j := range r.jobs {
		if j.Batch != nil && j.Batch.BatchID == batchID {
			out = append(out, j)
		}
	}
	return out, nil
}
func (r *fakeJobRepo) MarkRunning(ctx context.Context, id domain.JobID, startedAt time.Time) (bool, error) {
	j, ok := r.jobs[id]
	if !ok || j.State != domain.JobPending {
		return false, nil
	}
	if err := j.Start(startedAt); err != nil {
		return false, err
	}
	r.jobs[id] = j
	return true, nil
}
func (r *fakeJobRepo) UpdateJob(ctx context.Context, job domain.Job) error {
	r.jobs[job.ID] = job
	return nil
}

type fakeScenarioRepo struct {
	scenarios map[domain.ScenarioID]domain.Scenario
	outcomes  map[domain.ScenarioID]*domain.ScenarioOutcome
}

func (r *fakeScenarioRepo) GetScenario(ctx context.Context, id domain.ScenarioID) (domain.Scenario, error) {
	s, ok := r.scenarios[id]
	if !ok {
		return domain.Scenario{}, simerrors.Internal("not found", nil)
	}
	return s, nil
}
func (r *fakeScenarioRepo) GetScenarioOutcome(ctx context.Context, scenarioID domain.ScenarioID) (*domain.ScenarioOutcome, error) {
	return r.outcomes[scenarioID], nil
}

type fakeClassroomRepo struct {
	classrooms map[domain.ClassroomID]domain.Classroom
}

func (r *fakeClassroomRepo) GetClassroom(ctx context.Context, id domain.ClassroomID) (domain.Classroom, error) {
	return r.classrooms[id], nil
}

type fakeStoreRepo struct {
	stores     map[domain.StoreID]domain.Store
	storeTypes map[domain.StoreTypeID]domain.StoreType
}

func newFakeStoreRepo() *fakeStoreRepo {
	return &fakeStoreRepo{stores: map[domain.StoreID]domain.Store{}, storeTypes: map[domain.StoreTypeID]domain.StoreType{}}
}
func (r *fakeStoreRepo) GetStore(ctx context.Context, id domain.StoreID) (domain.Store, error) {
	return r.stores[id], nil
}
func (r *fakeStoreRepo) GetStoreByUser(ctx context.Context, classroomID domain.ClassroomID, userID domain.UserID) (domain.Store, error) {
	for _, s := range r.stores {
		if s.ClassroomID == classroomID && s.UserID == userID {
			return s, nil
		}
	}
	return domain.Store{}, simerrors.Internal("store not found", nil)
}
func (r *fakeStoreRepo) GetStoreType(ctx context.Context, id domain.StoreTypeID) (domain.StoreType, error) {
	return r.storeTypes[id], nil
}
func (r *fakeStoreRepo) ListStoresByClassroom(ctx context.Context, classroomID domain.ClassroomID) ([]domain.Store, error) {
	var out []domain.Store
	for _, s := range r.stores {
		if s.ClassroomID == classroomID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeSubmissionRepo struct {
	submissions map[domain.SubmissionID]domain.Submission
}

func (r *fakeSubmissionRepo) GetSubmission(ctx context.Context, scenarioID domain.ScenarioID, userID domain.UserID) (*domain.Submission, error) {
	for _, s := range r.submissions {
		if s.ScenarioID == scenarioID && s.UserID == userID {
			c := s
			return &c, nil
		}
	}
	return nil, nil
}
func (r *fakeSubmissionRepo) SaveSubmission(ctx context.Context, submission domain.Submission) error {
	r.submissions[submission.ID] = submission
	return nil
}
func (r *fakeSubmissionRepo) GetPriorSubmission(ctx context.Context, classroomID domain.ClassroomID, userID domain.UserID, beforeScenarioID domain.ScenarioID) (*domain.Submission, error) {
	return nil, nil
}

type fakeLedgerRepo struct {
	entries map[domain.LedgerEntryID]domain.LedgerEntry
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{entries: map[domain.LedgerEntryID]domain.LedgerEntry{}}
}
func (r *fakeLedgerRepo) InsertEntry(ctx context.Context, entry domain.LedgerEntry) error {
	r.entries[entry.ID] = entry
	return nil
}
func (r *fakeLedgerRepo) GetEntry(ctx context.Context, id domain.LedgerEntryID) (domain.LedgerEntry, error) {
	return r.entries[id], nil
}
func (r *fakeLedgerRepo) LatestEntry(ctx context.Context, storeID domain.StoreID, userID domain.UserID) (*domain.LedgerEntry, error) {
	var latest *domain.LedgerEntry
	for _, e := range r.entries {
		if e.StoreID != storeID || e.UserID != userID {
			continue
		}
		c := e
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			latest = &c
		}
	}
	return latest, nil
}
func (r *fakeLedgerRepo) History(ctx context.Context, classroomID domain.ClassroomID, userID domain.UserID, excludeScenarioID *domain.ScenarioID) ([]domain.LedgerEntry, error) {
	var out []domain.LedgerEntry
	for _, e := range r.entries {
		if e.ClassroomID != classroomID || e.UserID != userID {
			continue
		}
		if excludeScenarioID != nil && e.ScenarioID != nil && *e.ScenarioID == *excludeScenarioID {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
func (r *fakeLedgerRepo) UpdateEntry(ctx context.Context, entry domain.LedgerEntry) error {
	r.entries[entry.ID] = entry
	return nil
}

// fakeOracleClient returns a scripted reply or error for CreateChatCompletion;
// the batch methods are unused by the Direct Execution Worker.
type fakeOracleClient struct {
	reply string
	err   error
	calls int
}

func (f *fakeOracleClient) CreateChatCompletion(ctx context.Context, req aioracle.Request) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}
func (f *fakeOracleClient) UploadBatchFile(ctx context.Context, lines []aioracle.BatchLine) (string, error) {
	return "", nil
}
func (f *fakeOracleClient) CreateBatch(ctx context.Context, inputFileID string) (string, error) {
	return "", nil
}
func (f *fakeOracleClient) RetrieveBatch(ctx context.Context, oracleBatchID string) (aioracle.BatchStatus, error) {
	return aioracle.BatchStatus{}, nil
}
func (f *fakeOracleClient) DownloadBatchOutput(ctx context.Context, outputFileID string) ([]aioracle.BatchResultLine, error) {
	return nil, nil
}

type fakeQueue struct {
	directDelayed []queue.DirectJobMessage
}

func (q *fakeQueue) EnqueueDirect(ctx context.Context, msg queue.DirectJobMessage) error { return nil }
func (q *fakeQueue) EnqueueDirectDelayed(ctx context.Context, msg queue.DirectJobMessage, after time.Duration) error {
	q.directDelayed = append(q.directDelayed, msg)
	return nil
}
func (q *fakeQueue) DequeueDirect(ctx context.Context, timeout time.Duration) (*queue.DirectJobMessage, error) {
	return nil, nil
}
func (q *fakeQueue) EnqueueBatch(ctx context.Context, msg queue.BatchMessage) error { return nil }
func (q *fakeQueue) EnqueueBatchDelayed(ctx context.Context, msg queue.BatchMessage, after time.Duration) error {
	return nil
}
func (q *fakeQueue) DequeueBatch(ctx context.Context, timeout time.Duration) (*queue.BatchMessage, error) {
	return nil, nil
}
func (q *fakeQueue) PublishNotification(ctx context.Context, msg queue.NotificationMessage) error {
	return nil
}
