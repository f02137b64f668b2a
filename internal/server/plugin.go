//*****************************************************************************
// Copyright 2024-2025 The SiteForge Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//*****************************************************************************

// Package server is the service layer between the HTTP handlers and the
// plugin manager.
package server

import (
	"context"

	"github.com/siteforge/siteforge/internal/api/dto"
	"github.com/siteforge/siteforge/internal/logger"
	"github.com/siteforge/siteforge/internal/plugin"
	"github.com/siteforge/siteforge/internal/types"
	"github.com/siteforge/siteforge/internal/utils/bcode"
)

type Plugin interface {
	InstallPlugin(ctx context.Context, request *dto.InstallPluginRequest) (*dto.InstallPluginResponse, error)
	UpgradePlugin(ctx context.Context, request *dto.UpgradePluginRequest) (*dto.UpgradePluginResponse, error)
	ActivatePlugin(ctx context.Context, request *dto.ActivatePluginRequest) (*dto.ActivatePluginResponse, error)
	DeactivatePlugin(ctx context.Context, request *dto.DeactivatePluginRequest) (*dto.DeactivatePluginResponse, error)
	UninstallPlugin(ctx context.Context, request *dto.UninstallPluginRequest) (*dto.UninstallPluginResponse, error)
	GetPluginList(ctx context.Context) (*dto.GetPluginListResponse, error)
	GetPluginInfo(ctx context.Context, request *dto.GetPluginInfoRequest) (*dto.GetPluginInfoResponse, error)
}

type PluginImpl struct {
	Manager *plugin.Manager
}

func NewPlugin(manager *plugin.Manager) *PluginImpl {
	return &PluginImpl{Manager: manager}
}

func toPluginDTO(record *types.PluginRecord) dto.Plugin {
	return dto.Plugin{
		PluginID:    record.PluginID,
		Name:        record.Name,
		Version:     record.Version,
		Author:      record.Author,
		Description: record.Description,
		Kind:        record.Kind,
		Status:      record.Status,
		Bundled:     record.Bundled,
		ArchivePath: record.ArchivePath,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

func (s *PluginImpl) InstallPlugin(ctx context.Context, request *dto.InstallPluginRequest) (*dto.InstallPluginResponse, error) {
	record, err := s.Manager.Install(ctx, request.ArchivePath)
	if err != nil {
		return nil, err
	}
	logger.LogicLogger.Info("plugin install completed", "plugin", record.PluginID)
	return &dto.InstallPluginResponse{
		Bcode: *bcode.SuccessCode,
		Data:  toPluginDTO(record),
	}, nil
}

func (s *PluginImpl) UpgradePlugin(ctx context.Context, request *dto.UpgradePluginRequest) (*dto.UpgradePluginResponse, error) {
	record, err := s.Manager.Upgrade(ctx, request.ArchivePath)
	if err != nil {
		return nil, err
	}
	logger.LogicLogger.Info("plugin upgrade completed", "plugin", record.PluginID, "version", record.Version)
	return &dto.UpgradePluginResponse{
		Bcode: *bcode.SuccessCode,
		Data:  toPluginDTO(record),
	}, nil
}

func (s *PluginImpl) ActivatePlugin(ctx context.Context, request *dto.ActivatePluginRequest) (*dto.ActivatePluginResponse, error) {
	if err := s.Manager.Activate(ctx, request.PluginID); err != nil {
		return nil, err
	}
	return &dto.ActivatePluginResponse{Bcode: *bcode.SuccessCode}, nil
}

func (s *PluginImpl) DeactivatePlugin(ctx context.Context, request *dto.DeactivatePluginRequest) (*dto.DeactivatePluginResponse, error) {
	if err := s.Manager.Deactivate(ctx, request.PluginID); err != nil {
		return nil, err
	}
	return &dto.DeactivatePluginResponse{Bcode: *bcode.SuccessCode}, nil
}

func (s *PluginImpl) UninstallPlugin(ctx context.Context, request *dto.UninstallPluginRequest) (*dto.UninstallPluginResponse, error) {
	if err := s.Manager.Uninstall(ctx, request.PluginID); err != nil {
		return nil, err
	}
	return &dto.UninstallPluginResponse{Bcode: *bcode.SuccessCode}, nil
}

func (s *PluginImpl) GetPluginList(ctx context.Context) (*dto.GetPluginListResponse, error) {
	records, err := s.Manager.ListPlugins(ctx)
	if err != nil {
		return nil, err
	}
	data := make([]dto.Plugin, 0, len(records))
	for _, record := range records {
		data = append(data, toPluginDTO(record))
	}
	return &dto.GetPluginListResponse{
		Bcode: *bcode.SuccessCode,
		Data:  data,
	}, nil
}

func (s *PluginImpl) GetPluginInfo(ctx context.Context, request *dto.GetPluginInfoRequest) (*dto.GetPluginInfoResponse, error) {
	record, err := s.Manager.GetPlugin(ctx, request.PluginID)
	if err != nil {
		return nil, err
	}
	return &dto.GetPluginInfoResponse{
		Bcode: *bcode.SuccessCode,
		Data:  toPluginDTO(record),
	}, nil
}
