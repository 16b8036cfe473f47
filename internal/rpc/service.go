package rpc

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// RegistrationServiceName is the fully-qualified name of the service.
const RegistrationServiceName = "registration.v1.RegistrationService"

// Procedure paths, usable with mux.Handle and for interceptor routing.
const (
	RegistrationServiceStartSessionProcedure     = "/registration.v1.RegistrationService/StartSession"
	RegistrationServiceSetGuardianProcedure      = "/registration.v1.RegistrationService/SetGuardian"
	RegistrationServiceNewPlayerProcedure        = "/registration.v1.RegistrationService/NewPlayer"
	RegistrationServiceEditPlayerProcedure       = "/registration.v1.RegistrationService/EditPlayer"
	RegistrationServiceUpdatePlayerProcedure     = "/registration.v1.RegistrationService/UpdatePlayer"
	RegistrationServiceSavePlayerProcedure       = "/registration.v1.RegistrationService/SavePlayer"
	RegistrationServiceCancelEditProcedure       = "/registration.v1.RegistrationService/CancelEdit"
	RegistrationServiceRemovePlayerProcedure     = "/registration.v1.RegistrationService/RemovePlayer"
	RegistrationServiceAttachDocumentProcedure   = "/registration.v1.RegistrationService/AttachDocument"
	RegistrationServiceDetachDocumentProcedure   = "/registration.v1.RegistrationService/DetachDocument"
	RegistrationServiceSetSkipDocumentsProcedure = "/registration.v1.RegistrationService/SetSkipDocuments"
	RegistrationServiceUpdateMedicalProcedure    = "/registration.v1.RegistrationService/UpdateMedical"
	RegistrationServiceSetWaiversProcedure       = "/registration.v1.RegistrationService/SetWaivers"
	RegistrationServiceNavigateProcedure         = "/registration.v1.RegistrationService/Navigate"
	RegistrationServiceSubmitProcedure           = "/registration.v1.RegistrationService/Submit"
	RegistrationServiceEndSessionProcedure       = "/registration.v1.RegistrationService/EndSession"
	RegistrationServiceGetStateProcedure         = "/registration.v1.RegistrationService/GetState"
)

// RegistrationServiceHandler is implemented by the registration wizard service.
type RegistrationServiceHandler interface {
	StartSession(context.Context, *connect.Request[StartSessionRequest]) (*connect.Response[StateResponse], error)
	SetGuardian(context.Context, *connect.Request[SetGuardianRequest]) (*connect.Response[StateResponse], error)
	NewPlayer(context.Context, *connect.Request[SessionRequest]) (*connect.Response[NewPlayerResponse], error)
	EditPlayer(context.Context, *connect.Request[PlayerRequest]) (*connect.Response[StateResponse], error)
	UpdatePlayer(context.Context, *connect.Request[UpdatePlayerRequest]) (*connect.Response[UpdatePlayerResponse], error)
	SavePlayer(context.Context, *connect.Request[SessionRequest]) (*connect.Response[StateResponse], error)
	CancelEdit(context.Context, *connect.Request[SessionRequest]) (*connect.Response[StateResponse], error)
	RemovePlayer(context.Context, *connect.Request[PlayerRequest]) (*connect.Response[StateResponse], error)
	AttachDocument(context.Context, *connect.Request[AttachDocumentRequest]) (*connect.Response[StateResponse], error)
	DetachDocument(context.Context, *connect.Request[DetachDocumentRequest]) (*connect.Response[StateResponse], error)
	SetSkipDocuments(context.Context, *connect.Request[SetSkipDocumentsRequest]) (*connect.Response[StateResponse], error)
	UpdateMedical(context.Context, *connect.Request[UpdateMedicalRequest]) (*connect.Response[StateResponse], error)
	SetWaivers(context.Context, *connect.Request[SetWaiversRequest]) (*connect.Response[StateResponse], error)
	Navigate(context.Context, *connect.Request[NavigateRequest]) (*connect.Response[StateResponse], error)
	Submit(context.Context, *connect.Request[SessionRequest]) (*connect.Response[SubmitResponse], error)
	EndSession(context.Context, *connect.Request[SessionRequest]) (*connect.Response[EndSessionResponse], error)
	GetState(context.Context, *connect.Request[SessionRequest]) (*connect.Response[StateResponse], error)
}

// NewRegistrationServiceHandler builds an HTTP handler for every procedure.
// It returns the path to mount the handler on. The JSON codec is always
// installed, so options need not repeat it.
func NewRegistrationServiceHandler(svc RegistrationServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append(opts, connect.WithCodec(Codec{}))
	handlers := map[string]http.Handler{
		RegistrationServiceStartSessionProcedure:     connect.NewUnaryHandler(RegistrationServiceStartSessionProcedure, svc.StartSession, opts...),
		RegistrationServiceSetGuardianProcedure:      connect.NewUnaryHandler(RegistrationServiceSetGuardianProcedure, svc.SetGuardian, opts...),
		RegistrationServiceNewPlayerProcedure:        connect.NewUnaryHandler(RegistrationServiceNewPlayerProcedure, svc.NewPlayer, opts...),
		RegistrationServiceEditPlayerProcedure:       connect.NewUnaryHandler(RegistrationServiceEditPlayerProcedure, svc.EditPlayer, opts...),
		RegistrationServiceUpdatePlayerProcedure:     connect.NewUnaryHandler(RegistrationServiceUpdatePlayerProcedure, svc.UpdatePlayer, opts...),
		RegistrationServiceSavePlayerProcedure:       connect.NewUnaryHandler(RegistrationServiceSavePlayerProcedure, svc.SavePlayer, opts...),
		RegistrationServiceCancelEditProcedure:       connect.NewUnaryHandler(RegistrationServiceCancelEditProcedure, svc.CancelEdit, opts...),
		RegistrationServiceRemovePlayerProcedure:     connect.NewUnaryHandler(RegistrationServiceRemovePlayerProcedure, svc.RemovePlayer, opts...),
		RegistrationServiceAttachDocumentProcedure:   connect.NewUnaryHandler(RegistrationServiceAttachDocumentProcedure, svc.AttachDocument, opts...),
		RegistrationServiceDetachDocumentProcedure:   connect.NewUnaryHandler(RegistrationServiceDetachDocumentProcedure, svc.DetachDocument, opts...),
		RegistrationServiceSetSkipDocumentsProcedure: connect.NewUnaryHandler(RegistrationServiceSetSkipDocumentsProcedure, svc.SetSkipDocuments, opts...),
		RegistrationServiceUpdateMedicalProcedure:    connect.NewUnaryHandler(RegistrationServiceUpdateMedicalProcedure, svc.UpdateMedical, opts...),
		RegistrationServiceSetWaiversProcedure:       connect.NewUnaryHandler(RegistrationServiceSetWaiversProcedure, svc.SetWaivers, opts...),
		RegistrationServiceNavigateProcedure:         connect.NewUnaryHandler(RegistrationServiceNavigateProcedure, svc.Navigate, opts...),
		RegistrationServiceSubmitProcedure:           connect.NewUnaryHandler(RegistrationServiceSubmitProcedure, svc.Submit, opts...),
		RegistrationServiceEndSessionProcedure:       connect.NewUnaryHandler(RegistrationServiceEndSessionProcedure, svc.EndSession, opts...),
		RegistrationServiceGetStateProcedure:         connect.NewUnaryHandler(RegistrationServiceGetStateProcedure, svc.GetState, opts...),
	}
	return "/" + RegistrationServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// RegistrationServiceClient calls the registration service over Connect.
type RegistrationServiceClient struct {
	startSession     *connect.Client[StartSessionRequest, StateResponse]
	setGuardian      *connect.Client[SetGuardianRequest, StateResponse]
	newPlayer        *connect.Client[SessionRequest, NewPlayerResponse]
	editPlayer       *connect.Client[PlayerRequest, StateResponse]
	updatePlayer     *connect.Client[UpdatePlayerRequest, UpdatePlayerResponse]
	savePlayer       *connect.Client[SessionRequest, StateResponse]
	cancelEdit       *connect.Client[SessionRequest, StateResponse]
	removePlayer     *connect.Client[PlayerRequest, StateResponse]
	attachDocument   *connect.Client[AttachDocumentRequest, StateResponse]
	detachDocument   *connect.Client[DetachDocumentRequest, StateResponse]
	setSkipDocuments *connect.Client[SetSkipDocumentsRequest, StateResponse]
	updateMedical    *connect.Client[UpdateMedicalRequest, StateResponse]
	setWaivers       *connect.Client[SetWaiversRequest, StateResponse]
	navigate         *connect.Client[NavigateRequest, StateResponse]
	submit           *connect.Client[SessionRequest, SubmitResponse]
	endSession       *connect.Client[SessionRequest, EndSessionResponse]
	getState         *connect.Client[SessionRequest, StateResponse]
}

// NewRegistrationServiceClient returns a client for the service at baseURL,
// for example http://localhost:8080.
func NewRegistrationServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *RegistrationServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append(opts, connect.WithCodec(Codec{}))
	return &RegistrationServiceClient{
		startSession:     connect.NewClient[StartSessionRequest, StateResponse](httpClient, baseURL+RegistrationServiceStartSessionProcedure, opts...),
		setGuardian:      connect.NewClient[SetGuardianRequest, StateResponse](httpClient, baseURL+RegistrationServiceSetGuardianProcedure, opts...),
		newPlayer:        connect.NewClient[SessionRequest, NewPlayerResponse](httpClient, baseURL+RegistrationServiceNewPlayerProcedure, opts...),
		editPlayer:       connect.NewClient[PlayerRequest, StateResponse](httpClient, baseURL+RegistrationServiceEditPlayerProcedure, opts...),
		updatePlayer:     connect.NewClient[UpdatePlayerRequest, UpdatePlayerResponse](httpClient, baseURL+RegistrationServiceUpdatePlayerProcedure, opts...),
		savePlayer:       connect.NewClient[SessionRequest, StateResponse](httpClient, baseURL+RegistrationServiceSavePlayerProcedure, opts...),
		cancelEdit:       connect.NewClient[SessionRequest, StateResponse](httpClient, baseURL+RegistrationServiceCancelEditProcedure, opts...),
		removePlayer:     connect.NewClient[PlayerRequest, StateResponse](httpClient, baseURL+RegistrationServiceRemovePlayerProcedure, opts...),
		attachDocument:   connect.NewClient[AttachDocumentRequest, StateResponse](httpClient, baseURL+RegistrationServiceAttachDocumentProcedure, opts...),
		detachDocument:   connect.NewClient[DetachDocumentRequest, StateResponse](httpClient, baseURL+RegistrationServiceDetachDocumentProcedure, opts...),
		setSkipDocuments: connect.NewClient[SetSkipDocumentsRequest, StateResponse](httpClient, baseURL+RegistrationServiceSetSkipDocumentsProcedure, opts...),
		updateMedical:    connect.NewClient[UpdateMedicalRequest, StateResponse](httpClient, baseURL+RegistrationServiceUpdateMedicalProcedure, opts...),
		setWaivers:       connect.NewClient[SetWaiversRequest, StateResponse](httpClient, baseURL+RegistrationServiceSetWaiversProcedure, opts...),
		navigate:         connect.NewClient[NavigateRequest, StateResponse](httpClient, baseURL+RegistrationServiceNavigateProcedure, opts...),
		submit:           connect.NewClient[SessionRequest, SubmitResponse](httpClient, baseURL+RegistrationServiceSubmitProcedure, opts...),
		endSession:       connect.NewClient[SessionRequest, EndSessionResponse](httpClient, baseURL+RegistrationServiceEndSessionProcedure, opts...),
		getState:         connect.NewClient[SessionRequest, StateResponse](httpClient, baseURL+RegistrationServiceGetStateProcedure, opts...),
	}
}

func (c *RegistrationServiceClient) StartSession(ctx context.Context, req *connect.Request[StartSessionRequest]) (*connect.Response[StateResponse], error) {
	return c.startSession.CallUnary(ctx, req)
}

func (c *RegistrationServiceClient) SetGuardian(ctx context.Context, req *connect.Request[SetGuardianRequest]) (*connect.Response[StateResponse], error) {
	return c.setGuardian.CallUnary(ctx, req)
}

func (c *RegistrationServiceClient) NewPlayer(ctx context.Context, req *connect.Request[SessionRequest]) (*connect.Response[NewPlayerResponse], error) {
	return c.newPlayer.CallUnary(ctx, req)
}

func (c *RegistrationServiceClient) EditPlayer(ctx context.Context, req *connect.Request[PlayerRequest]) (*connect.Response[StateResponse], error) {
	return c.editPlayer.CallUnary(ctx, req)
}

func (c *RegistrationServiceClient) UpdatePlayer(ctx context.Context, req *connect.Request[UpdatePlayerRequest]) (*connect.Response[UpdatePlayerResponse], error) {
	return c.updatePlayer.CallUnary(ctx, req)
}

func (c *RegistrationServiceClient) SavePlayer(ctx context.Context, req *connect.Request[SessionRequest]) (*connect.Response[StateResponse], error) {
	return c.savePlayer.CallUnary(ctx, req)
}

func (c *RegistrationServiceClient) CancelEdit(ctx context.Context, req *connect.Request[SessionRequest]) (*connect.Response[StateResponse], error) {
	return c.cancelEdit.CallUnary(ctx, req)
}

func (c *RegistrationServiceClient) RemovePlayer(ctx context.Context, req *connect.Request[PlayerRequest]) (*connect.Response[StateResponse], error) {
	return c.removePlayer.CallUnary(ctx, req)
}

func (c *RegistrationServiceClient) AttachDocument(ctx context.Context, req *connect.Request[AttachDocumentRequest]) (*connect.Response[StateResponse], error) {
	return c.attachDocument.CallUnary(ctx, req)
}

func (c *RegistrationServiceClient) DetachDocument(ctx context.Context, req *connect.Request[DetachDocumentRequest]) (*connect.Response[StateResponse], error) {
	return c.detachDocument.CallUnary(ctx, req)
}

func (c *RegistrationServiceClient) SetSkipDocuments(ctx context.Context, req *connect.Request[SetSkipDocumentsRequest]) (*connect.Response[StateResponse], error) {
	return c.setSkipDocuments.CallUnary(ctx, req)
}

func (c *RegistrationServiceClient) UpdateMedical(ctx context.Context, req *connect.Request[UpdateMedicalRequest]) (*connect.Response[StateResponse], error) {
	return c.updateMedical.CallUnary(ctx, req)
}

func (c *RegistrationServiceClient) SetWaivers(ctx context.Context, req *connect.Request[SetWaiversRequest]) (*connect.Response[StateResponse], error) {
	return c.setWaivers.CallUnary(ctx, req)
}

func (c *RegistrationServiceClient) Navigate(ctx context.Context, req *connect.Request[NavigateRequest]) (*connect.Response[StateResponse], error) {
	return c.navigate.CallUnary(ctx, req)
}

func (c *RegistrationServiceClient) Submit(ctx context.Context, req *connect.Request[SessionRequest]) (*connect.Response[SubmitResponse], error) {
	return c.submit.CallUnary(ctx, req)
}

func (c *RegistrationServiceClient) EndSession(ctx context.Context, req *connect.Request[SessionRequest]) (*connect.Response[EndSessionResponse], error) {
	return c.endSession.CallUnary(ctx, req)
}

func (c *RegistrationServiceClient) GetState(ctx context.Context, req *connect.Request[SessionRequest]) (*connect.Response[StateResponse], error) {
	return c.getState.CallUnary(ctx, req)
}

// UnimplementedRegistrationServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedRegistrationServiceHandler struct{}

func (UnimplementedRegistrationServiceHandler) StartSession(context.Context, *connect.Request[StartSessionRequest]) (*connect.Response[StateResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("registration.v1.RegistrationService.StartSession is not implemented"))
}

func (UnimplementedRegistrationServiceHandler) SetGuardian(context.Context, *connect.Request[SetGuardianRequest]) (*connect.Response[StateResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("registration.v1.RegistrationService.SetGuardian is not implemented"))
}

func (UnimplementedRegistrationServiceHandler) NewPlayer(context.Context, *connect.Request[SessionRequest]) (*connect.Response[NewPlayerResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("registration.v1.RegistrationService.NewPlayer is not implemented"))
}

func (UnimplementedRegistrationServiceHandler) EditPlayer(context.Context, *connect.Request[PlayerRequest]) (*connect.Response[StateResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("registration.v1.RegistrationService.EditPlayer is not implemented"))
}

func (UnimplementedRegistrationServiceHandler) UpdatePlayer(context.Context, *connect.Request[UpdatePlayerRequest]) (*connect.Response[UpdatePlayerResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("registration.v1.RegistrationService.UpdatePlayer is not implemented"))
}

func (UnimplementedRegistrationServiceHandler) SavePlayer(context.Context, *connect.Request[SessionRequest]) (*connect.Response[StateResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("registration.v1.RegistrationService.SavePlayer is not implemented"))
}

func (UnimplementedRegistrationServiceHandler) CancelEdit(context.Context, *connect.Request[SessionRequest]) (*connect.Response[StateResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("registration.v1.RegistrationService.CancelEdit is not implemented"))
}

func (UnimplementedRegistrationServiceHandler) RemovePlayer(context.Context, *connect.Request[PlayerRequest]) (*connect.Response[StateResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("registration.v1.RegistrationService.RemovePlayer is not implemented"))
}

func (UnimplementedRegistrationServiceHandler) AttachDocument(context.Context, *connect.Request[AttachDocumentRequest]) (*connect.Response[StateResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("registration.v1.RegistrationService.AttachDocument is not implemented"))
}

func (UnimplementedRegistrationServiceHandler) DetachDocument(context.Context, *connect.Request[DetachDocumentRequest]) (*connect.Response[StateResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("registration.v1.RegistrationService.DetachDocument is not implemented"))
}

func (UnimplementedRegistrationServiceHandler) SetSkipDocuments(context.Context, *connect.Request[SetSkipDocumentsRequest]) (*connect.Response[StateResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("registration.v1.RegistrationService.SetSkipDocuments is not implemented"))
}

func (UnimplementedRegistrationServiceHandler) UpdateMedical(context.Context, *connect.Request[UpdateMedicalRequest]) (*connect.Response[StateResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("registration.v1.RegistrationService.UpdateMedical is not implemented"))
}

func (UnimplementedRegistrationServiceHandler) SetWaivers(context.Context, *connect.Request[SetWaiversRequest]) (*connect.Response[StateResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("registration.v1.RegistrationService.SetWaivers is not implemented"))
}

func (UnimplementedRegistrationServiceHandler) Navigate(context.Context, *connect.Request[NavigateRequest]) (*connect.Response[StateResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("registration.v1.RegistrationService.Navigate is not implemented"))
}

func (UnimplementedRegistrationServiceHandler) Submit(context.Context, *connect.Request[SessionRequest]) (*connect.Response[SubmitResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("registration.v1.RegistrationService.Submit is not implemented"))
}

func (UnimplementedRegistrationServiceHandler) EndSession(context.Context, *connect.Request[SessionRequest]) (*connect.Response[EndSessionResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("registration.v1.RegistrationService.EndSession is not implemented"))
}

func (UnimplementedRegistrationServiceHandler) GetState(context.Context, *connect.Request[SessionRequest]) (*connect.Response[StateResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("registration.v1.RegistrationService.GetState is not implemented"))
}
