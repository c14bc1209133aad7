package handler

import (
	"github.com/tealtint-nt/WebRTCSample/internal/app/chat"
	"github.com/tealtint-nt/WebRTCSample/internal/configs"
)

// AppDeps holds the collaborators shared by every HTTP handler.
type AppDeps struct {
	Hub    *chat.Hub
	Config *configs.AppConfig
}
