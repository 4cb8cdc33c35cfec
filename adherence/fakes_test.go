package adherence

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/patient-tracker/adherence-api/databases"
	"github.com/patient-tracker/adherence-api/models"
)

// memLedger is an in-memory AdherenceDatabase that enforces the unique dose key
type memLedger struct {
	mu           sync.Mutex
	records      map[models.DoseKey]*models.AdherenceRecord
	beforeInsert func()
}

func newMemLedger() *memLedger {
	return &memLedger{records: map[models.DoseKey]*models.AdherenceRecord{}}
}

func (l *memLedger) all() []models.AdherenceRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.AdherenceRecord, 0, len(l.records))
	for _, r := range l.records {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MedicineID < out[j].MedicineID })
	return out
}

func (l *memLedger) get(key models.DoseKey) *models.AdherenceRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	if r, ok := l.records[key]; ok {
		cp := *r
		return &cp
	}
	return nil
}

func (l *memLedger) put(r models.AdherenceRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	l.records[r.Key()] = &r
}

func (l *memLedger) EnsureIndexes(context.Context) error { return nil }

func (l *memLedger) FindByKey(_ context.Context, key models.DoseKey) (*models.AdherenceRecord, error) {
	if r := l.get(key); r != nil {
		return r, nil
	}
	return nil, databases.ErrNotFound
}

func (l *memLedger) Insert(_ context.Context, record *models.AdherenceRecord) error {
	if l.beforeInsert != nil {
		l.beforeInsert()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.records[record.Key()]; ok {
		return databases.ErrDuplicateKey
	}
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	cp := *record
	l.records[record.Key()] = &cp
	return nil
}

func (l *memLedger) UpdateStatus(_ context.Context, key models.DoseKey, status models.AdherenceStatus, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.records[key]
	if !ok {
		return databases.ErrNotFound
	}
	if status == models.StatusMissed && r.Status != models.StatusMissed {
		r.MissedDoses++
	}
	r.Status = status
	r.UpdatedAt = now
	return nil
}

func (l *memLedger) SeedReminder(_ context.Context, record models.AdherenceRecord, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if r, ok := l.records[record.Key()]; ok {
		r.ReminderSent = true
		r.UpdatedAt = now
		return nil
	}
	record.ID = primitive.NewObjectID()
	record.Status = models.StatusPending
	record.ReminderSent = true
	record.CreatedAt = now
	record.UpdatedAt = now
	l.records[record.Key()] = &record
	return nil
}

func (l *memLedger) FindByPatientDate(_ context.Context, patientID, date string) ([]models.AdherenceRecord, error) {
	var out []models.AdherenceRecord
	for _, r := range l.all() {
		if r.PatientID == patientID && r.ScheduledDate == date {
			out = append(out, r)
		}
	}
	return out, nil
}

func (l *memLedger) FindByPatientDateRange(_ context.Context, patientID, from, to string) ([]models.AdherenceRecord, error) {
	var out []models.AdherenceRecord
	for _, r := range l.all() {
		if r.PatientID == patientID && r.ScheduledDate >= from && r.ScheduledDate <= to {
			out = append(out, r)
		}
	}
	return out, nil
}

func (l *memLedger) FindPending(_ context.Context, f models.PendingFilter) ([]models.AdherenceRecord, error) {
	periods := map[models.Period]bool{}
	for _, p := range f.Periods {
		periods[p] = true
	}
	var out []models.AdherenceRecord
	for _, r := range l.all() {
		if r.Status != models.StatusPending || r.ScheduledDate != f.ScheduledDate || !periods[r.ScheduledTime] {
			continue
		}
		if f.PatientID != "" && r.PatientID != f.PatientID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (l *memLedger) MarkMissed(_ context.Context, id primitive.ObjectID, now time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.records {
		if r.ID == id && r.Status == models.StatusPending {
			r.Status = models.StatusMissed
			r.MissedDoses++
			r.UpdatedAt = now
			return true, nil
		}
	}
	return false, nil
}

func (l *memLedger) InsertMissed(_ context.Context, record models.AdherenceRecord, now time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.records[record.Key()]; ok {
		return false, nil
	}
	record.ID = primitive.NewObjectID()
	record.Status = models.StatusMissed
	record.MissedDoses = 1
	record.CreatedAt = now
	record.UpdatedAt = now
	l.records[record.Key()] = &record
	return true, nil
}

func (l *memLedger) DeleteForPrescription(_ context.Context, prescriptionID string, medicineIDs []string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	meds := map[string]bool{}
	for _, id := range medicineIDs {
		meds[id] = true
	}
	var n int64
	for k, r := range l.records {
		if r.PrescriptionID == prescriptionID || meds[r.MedicineID] {
			delete(l.records, k)
			n++
		}
	}
	return n, nil
}

type memPrescriptions struct {
	mu    sync.Mutex
	items []models.Prescription
}

func (m *memPrescriptions) EnsureIndexes(context.Context) error { return nil }

func (m *memPrescriptions) Insert(_ context.Context, p *models.Prescription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	m.items = append(m.items, *p)
	return nil
}

func (m *memPrescriptions) FindByID(_ context.Context, id string) (*models.Prescription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.items {
		if p.ID.Hex() == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, databases.ErrNotFound
}

func (m *memPrescriptions) FindByPatient(_ context.Context, patientID string) ([]models.Prescription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Prescription
	for i := len(m.items) - 1; i >= 0; i-- {
		if m.items[i].PatientID == patientID {
			out = append(out, m.items[i])
		}
	}
	return out, nil
}

func (m *memPrescriptions) PatientIDs(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, p := range m.items {
		if !seen[p.PatientID] {
			seen[p.PatientID] = true
			out = append(out, p.PatientID)
		}
	}
	return out, nil
}

func (m *memPrescriptions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.items {
		if p.ID.Hex() == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return databases.ErrNotFound
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemUsers(users ...models.User) *memUsers {
	m := &memUsers{users: map[string]*models.User{}}
	for i := range users {
		u := users[i]
		m.users[u.ID.Hex()] = &u
	}
	return m
}

func (m *memUsers) EnsureIndexes(context.Context) error { return nil }

func (m *memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, databases.ErrNotFound
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, databases.ErrNotFound
}

func (m *memUsers) Insert(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID.Hex()] = u
	return nil
}

func (m *memUsers) AssignDoctor(_ context.Context, patientID, doctorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[patientID]
	if !ok {
		return databases.ErrNotFound
	}
	if !u.HasDoctor(doctorID) {
		u.DoctorIDs = append(u.DoctorIDs, doctorID)
	}
	return nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []models.Notification
}

func (n *recordingNotifier) NotifyPatient(patientID string, msg models.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	msg.PatientID = patientID
	n.sent = append(n.sent, msg)
}

func (n *recordingNotifier) notifications() []models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.Notification(nil), n.sent...)
}

type sentEmail struct {
	email  string
	doses  []models.ExpectedDose
	period models.Period
}

type recordingMailer struct {
	mu     sync.Mutex
	sent   []sentEmail
	failTo map[string]error
}

func (m *recordingMailer) SendReminderEmail(_ context.Context, email, _ string, doses []models.ExpectedDose, period models.Period) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failTo[email]; err != nil {
		return err
	}
	m.sent = append(m.sent, sentEmail{email: email, doses: doses, period: period})
	return nil
}

func (m *recordingMailer) emails() []sentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentEmail(nil), m.sent...)
}

// fixture is a Service over in-memory stores with a settable clock
type fixture struct {
	svc      *Service
	ledger   *memLedger
	rx       *memPrescriptions
	users    *memUsers
	notifier *recordingNotifier
	mailer   *recordingMailer
	clock    time.Time
	patient  models.User
	doctor   models.User
}

func newFixture(now time.Time) *fixture {
	doctor := models.User{ID: primitive.NewObjectID(), Name: "Dr Who", Email: "doctor@example.com", Role: models.RoleDoctor}
	patient := models.User{
		ID:        primitive.NewObjectID(),
		Name:      "Jane",
		Email:     "jane@example.com",
		Role:      models.RolePatient,
		DoctorIDs: []string{doctor.ID.Hex()},
	}
	f := &fixture{
		ledger:   newMemLedger(),
		rx:       &memPrescriptions{},
		users:    newMemUsers(patient, doctor),
		notifier: &recordingNotifier{},
		mailer:   &recordingMailer{failTo: map[string]error{}},
		clock:    now,
		patient:  patient,
		doctor:   doctor,
	}
	f.svc = NewService(f.rx, f.ledger, f.users, f.notifier, f.mailer)
	f.svc.Now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) patientID() string { return f.patient.ID.Hex() }

func (f *fixture) asPatient() models.Principal {
	return models.Principal{ID: f.patientID(), Role: models.RolePatient}
}

func (f *fixture) asDoctor() models.Principal {
	return models.Principal{ID: f.doctor.ID.Hex(), Role: models.RoleDoctor}
}

// prescribe stores a prescription for the fixture patient written at f.clock
func (f *fixture) prescribe(meds ...models.PrescribedMedicine) models.Prescription {
	for i := range meds {
		if meds[i].ID.IsZero() {
			meds[i].ID = primitive.NewObjectID()
		}
	}
	p := models.Prescription{
		ID:        primitive.NewObjectID(),
		PatientID: f.patientID(),
		DoctorID:  f.doctor.ID.Hex(),
		Date:      f.clock,
		Condition: DefaultCondition,
		Medicines: meds,
		CreatedAt: f.clock,
	}
	_ = f.rx.Insert(context.Background(), &p)
	return p
}

func at(day, hour, minute int) time.Time {
	return time.Date(2024, 5, day, hour, minute, 0, 0, time.Local)
}
