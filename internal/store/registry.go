package store

import (
	"context"
	"fmt"

	"appointment-queue-backend/internal/model"
)

func (s *gormStore) ListStaff(ctx context.Context) ([]model.Staff, error) {
	var staff []model.Staff
	if err := s.db.WithContext(ctx).Order("name asc").Find(&staff).Error; err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	return staff, nil
}

func (s *gormStore) GetStaff(ctx context.Context, id string) (model.Staff, error) {
	var st model.Staff
	if err := s.db.WithContext(ctx).First(&st, "id = ?", id).Error; err != nil {
		return model.Staff{}, notFound(err)
	}
	return st, nil
}

func (s *gormStore) CreateStaff(ctx context.Context, st *model.Staff) error {
	if err := s.db.WithContext(ctx).Create(st).Error; err != nil {
		return fmt.Errorf("failed to create staff: %w", err)
	}
	return nil
}

func (s *gormStore) UpdateStaff(ctx context.Context, id string, patch StaffPatch) (model.Staff, error) {
	fields := make(map[string]any)
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.ServiceType != nil {
		fields["service_type"] = *patch.ServiceType
	}
	if patch.DailyCapacity != nil {
		fields["daily_capacity"] = *patch.DailyCapacity
	}
	if patch.Status != nil {
		fields["status"] = *patch.Status
	}

	if len(fields) > 0 {
		res := s.db.WithContext(ctx).Model(&model.Staff{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return model.Staff{}, fmt.Errorf("failed to update staff %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return model.Staff{}, ErrNotFound
		}
	}
	return s.GetStaff(ctx, id)
}

func (s *gormStore) DeleteStaff(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&model.Staff{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete staff %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) ListServices(ctx context.Context) ([]model.Service, error) {
	var services []model.Service
	if err := s.db.WithContext(ctx).Order("name asc").Find(&services).Error; err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}

func (s *gormStore) GetService(ctx context.Context, id string) (model.Service, error) {
	var svc model.Service
	if err := s.db.WithContext(ctx).First(&svc, "id = ?", id).Error; err != nil {
		return model.Service{}, notFound(err)
	}
	return svc, nil
}

func (s *gormStore) CreateService(ctx context.Context, svc *model.Service) error {
	if err := s.db.WithContext(ctx).Create(svc).Error; err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	return nil
}

func (s *gormStore) UpdateService(ctx context.Context, id string, patch ServicePatch) (model.Service, error) {
	fields := make(map[string]any)
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.Duration != nil {
		fields["duration"] = *patch.Duration
	}
	if patch.RequiredStaffType != nil {
		fields["required_staff_type"] = *patch.RequiredStaffType
	}

	if len(fields) > 0 {
		res := s.db.WithContext(ctx).Model(&model.Service{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return model.Service{}, fmt.Errorf("failed to update service %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return model.Service{}, ErrNotFound
		}
	}
	return s.GetService(ctx, id)
}

func (s *gormStore) DeleteService(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&model.Service{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete service %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
