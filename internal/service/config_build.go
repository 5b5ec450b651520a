// 文件路径: internal/service/config_build.go
// 模块说明: 这是 internal 模块里的 config_build 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/creamcroissant/boxbuild/internal/builder"
	"github.com/creamcroissant/boxbuild/internal/repository"
)

// ConfigBuildService compiles stored profiles and lists what can be built.
type ConfigBuildService interface {
	// Build compiles the profile; mode is "normal", "test" or "export".
	Build(ctx context.Context, profileID int64, mode string) (*builder.ConfigBuildResult, error)
	// ListProfiles returns every stored profile.
	ListProfiles(ctx context.Context) ([]*repository.ProxyEntity, error)
}

type configBuildService struct {
	builder  *builder.Builder
	profiles repository.ProfileRepository
	metrics  *BuildMetrics
	logger   *slog.Logger
}

// NewConfigBuildService creates the build service. metrics may be nil.
func NewConfigBuildService(b *builder.Builder, profiles repository.ProfileRepository, metrics *BuildMetrics, logger *slog.Logger) ConfigBuildService {
	if logger == nil {
		logger = slog.Default()
	}
	return &configBuildService{
		builder:  b,
		profiles: profiles,
		metrics:  metrics,
		logger:   logger,
	}
}

func (s *configBuildService) Build(ctx context.Context, profileID int64, mode string) (*builder.ConfigBuildResult, error) {
	buildMode, err := builder.ParseMode(mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	start := time.Now()
	result, err := s.builder.Build(ctx, profileID, buildMode)
	elapsed := time.Since(start)
	s.metrics.observe(buildMode, elapsed, result, err)

	if err != nil {
		s.logger.Warn("config build failed",
			"profile_id", profileID,
			"mode", buildMode.String(),
			"duration", elapsed,
			"error", err,
		)
		if errors.Is(err, builder.ErrProfileNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrBuildFailed, err)
	}

	hops := 0
	for _, chain := range result.ExternalIndex {
		hops += len(chain.Hops)
	}
	s.logger.Info("config build finished",
		"profile_id", profileID,
		"mode", buildMode.String(),
		"duration", elapsed,
		"alerts", len(result.Alerts),
		"helper_hops", hops,
		"selector_group", result.SelectorGroupID,
	)
	for _, alert := range result.Alerts {
		s.logger.Warn("config build alert", "profile_id", profileID, "type", alert.Type, "rule", alert.Message)
	}
	return result, nil
}

func (s *configBuildService) ListProfiles(ctx context.Context) ([]*repository.ProxyEntity, error) {
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}
