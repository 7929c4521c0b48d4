package handler

import (
	"context"
	"mime/multipart"
	"sync"

	"loadboard/internal/authstate"
	"loadboard/internal/loadform"
	"loadboard/internal/model"
	"loadboard/internal/service"
)

// stubLoadService keeps loads in memory.
type stubLoadService struct {
	mu     sync.Mutex
	loads  map[string]*model.Load
	nextID int
	err    error
}

func newStubLoadService(loads ...*model.Load) *stubLoadService {
	s := &stubLoadService{loads: map[string]*model.Load{}}
	for _, l := range loads {
		s.loads[l.ID] = l
	}
	return s
}

func (s *stubLoadService) ListLoads(ctx context.Context) ([]model.Load, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := []model.Load{}
	for _, l := range s.loads {
		out = append(out, *l)
	}
	return out, nil
}

func (s *stubLoadService) GetLoad(ctx context.Context, id string) (*model.Load, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.loads[id]
	if !ok {
		return nil, service.ErrLoadNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *stubLoadService) CreateLoad(ctx context.Context, f model.LoadFields) (*model.Load, error) {
	id, err := s.Create(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.GetLoad(ctx, id)
}

func (s *stubLoadService) ReplaceLoad(ctx context.Context, id string, f model.LoadFields) (*model.Load, error) {
	return s.PatchLoad(ctx, id, f.Patch())
}

func (s *stubLoadService) PatchLoad(ctx context.Context, id string, p model.LoadPatch) (*model.Load, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.Update(ctx, id, p); err != nil {
		return nil, err
	}
	return s.GetLoad(ctx, id)
}

func (s *stubLoadService) DeleteLoad(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.loads[id]; !ok {
		return service.ErrLoadNotFound
	}
	delete(s.loads, id)
	return nil
}

func (s *stubLoadService) OpenForm(ctx context.Context, id string, opts loadform.Options) (*loadform.Controller, error) {
	var existing *model.Load
	if id != "" {
		l, err := s.GetLoad(ctx, id)
		if err != nil {
			return nil, err
		}
		existing = l
	}
	return loadform.New(stubGeocoder{}, s, existing, opts), nil
}

// Create and Update make the stub usable as the form's store.
func (s *stubLoadService) Create(ctx context.Context, f model.LoadFields) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.nextID++
	id := "load-" + string(rune('0'+s.nextID))
	s.loads[id] = &model.Load{
		ID: id, CurrentLocation: f.CurrentLocation, DestinationLocation: f.DestinationLocation,
		Weight: f.Weight, Dimensions: f.Dimensions, ContactDetails: f.ContactDetails,
	}
	return id, nil
}

func (s *stubLoadService) Update(ctx context.Context, id string, p model.LoadPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.loads[id]
	if !ok {
		return service.ErrLoadNotFound
	}
	if p.Weight != nil {
		l.Weight = *p.Weight
	}
	if p.Length != nil {
		l.Dimensions.Length = *p.Length
	}
	if p.CurrentLocation != nil {
		l.CurrentLocation = *p.CurrentLocation
	}
	if p.DestinationLocation != nil {
		l.DestinationLocation = *p.DestinationLocation
	}
	return nil
}

type stubGeocoder struct{}

func (stubGeocoder) Resolve(ctx context.Context, address string) (*model.ResolvedLocation, error) {
	switch address {
	case "Mumbai":
		return &model.ResolvedLocation{Latitude: 19.076, Longitude: 72.8777, FormattedAddress: "Mumbai"}, nil
	case "Delhi":
		return &model.ResolvedLocation{Latitude: 28.7041, Longitude: 77.1025, FormattedAddress: "Delhi"}, nil
	}
	return nil, &geocodeFailure{}
}

type geocodeFailure struct{}

func (*geocodeFailure) Error() string { return "no results found for the given address" }

type stubCalls struct{}

func (stubCalls) CallTarget(ctx context.Context, loadID string) (string, error) {
	if loadID == "no-phone" {
		return "", service.ErrCallNotSupported
	}
	return "tel:+919800000000", nil
}

type stubReceipts struct{}

func (stubReceipts) UploadReceipt(ctx context.Context, loadID string, file *multipart.FileHeader) (*service.Receipt, error) {
	if file == nil {
		return nil, service.ErrNoDocument
	}
	return &service.Receipt{LoadID: loadID, FileName: file.Filename, Message: service.ReceiptUploadMessage}, nil
}

type stubProfiles struct {
	user *model.User
}

func (s *stubProfiles) GetProfile(ctx context.Context, uid string) (*model.User, error) {
	if s.user == nil || s.user.ID != uid {
		return nil, service.ErrUserNotFound
	}
	return s.user, nil
}

func (s *stubProfiles) UpdateProfile(ctx context.Context, uid string, u service.ProfileUpdate) (*model.User, error) {
	if u.NewPassword != u.ConfirmPassword {
		return nil, &model.ValidationError{Reason: "Passwords do not match"}
	}
	if u.Address != nil {
		s.user.Address = u.Address
	}
	return s.user, nil
}

// stubAuth accepts "<role>:<uid>" tokens.
type stubAuth struct {
	mu        sync.Mutex
	signedOut []string
	listeners map[string]authstate.Listener
}

func (a *stubAuth) Authenticate(ctx context.Context, token string) (*service.Principal, error) {
	for _, role := range []string{model.RoleAdmin, model.RoleUser} {
		if len(token) > len(role)+1 && token[:len(role)+1] == role+":" {
			uid := token[len(role)+1:]
			return &service.Principal{Identity: model.Identity{UID: uid, Email: uid + "@x.io"}, Role: role}, nil
		}
	}
	return nil, &service.AuthError{Op: "authenticate", Err: service.ErrInvalidToken}
}

func (a *stubAuth) OnAuthStateChanged(ctx context.Context, uid string, fn authstate.Listener) (func(), error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listeners == nil {
		a.listeners = map[string]authstate.Listener{}
	}
	a.listeners[uid] = fn
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.listeners, uid)
	}, nil
}

func (a *stubAuth) emit(uid string, identity *model.Identity) bool {
	a.mu.Lock()
	fn := a.listeners[uid]
	a.mu.Unlock()
	if fn == nil {
		return false
	}
	fn(identity)
	return true
}

type stubUsers map[string]*model.User

func (s stubUsers) FindByID(ctx context.Context, id string) (*model.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, service.ErrUserNotFound
}

func (a *stubAuth) SignUp(ctx context.Context, email, password, name, role string) (*service.Session, error) {
	parsed, err := model.ParseRole(role)
	if err != nil {
		return nil, &service.AuthError{Op: "sign up", Err: err}
	}
	if email == "taken@x.io" {
		return nil, &service.AuthError{Op: "sign up", Err: service.ErrUserAlreadyExists}
	}
	return &service.Session{User: &model.User{ID: "new", Email: email, Name: name, Role: parsed}, Token: parsed + ":new"}, nil
}

func (a *stubAuth) SignIn(ctx context.Context, email, password string) (*service.Session, error) {
	if password != "secret1" {
		return nil, &service.AuthError{Op: "sign in", Err: service.ErrInvalidCredentials}
	}
	return &service.Session{User: &model.User{ID: "u1", Email: email, Role: model.RoleUser}, Token: "user:u1"}, nil
}

func (a *stubAuth) SignOut(ctx context.Context, token string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.signedOut = append(a.signedOut, token)
	return nil
}
