// Package mocks provides mock implementations of the ports in internal/core.
//
// The mocks are generated with go.uber.org/mock (gomock). To regenerate after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	source := mocks.NewMockRegistrantSource(ctrl)
//	source.EXPECT().FetchRegistrants(gomock.Any(), "token").Return(registrants, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=registrant_source_mock.go github.com/komunitas-inovasi/komunitas/internal/core RegistrantSource
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=registration_gateway_mock.go github.com/komunitas-inovasi/komunitas/internal/core RegistrationGateway
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=property_repository_mock.go github.com/komunitas-inovasi/komunitas/internal/core PropertyRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=upload_store_mock.go github.com/komunitas-inovasi/komunitas/internal/core UploadStore
