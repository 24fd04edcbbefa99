package converter

import (
	"clinic-orchestrator/internal/delivery/dto"
	"clinic-orchestrator/internal/domain/entity"
)

func VideoCredentialToResponse(credential *entity.VideoCredential) *dto.VideoCredentialResponse {
	if credential == nil {
		return nil
	}
	return &dto.VideoCredentialResponse{
		AppointmentID: credential.AppointmentID,
		Role:          string(credential.Role),
		UID:           credential.UID,
		Channel:       credential.Channel,
		Token:         credential.Token,
		IssuedAt:      credential.IssuedAt,
		ExpiresAt:     credential.ExpiresAt,
	}
}
