package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/civicworks/warddesk/backend/internal/adapters/database"
	"github.com/civicworks/warddesk/backend/internal/domain/entities"
	"github.com/civicworks/warddesk/backend/internal/infrastructure/clients/postgres"
	"github.com/civicworks/warddesk/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	wardRepo := database.NewWardAdapter(pgClient)
	roomRepo := database.NewWardRoomAdapter(pgClient)
	memberRepo := database.NewWardUserAdapter(pgClient)
	deviceRepo := database.NewDeviceAdapter(pgClient)

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				incidents,
				device_requests,
				devices,
				ward_users,
				ward_rooms,
				wards,
				user_settings,
				user_profiles,
				users
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	// 1. Seed Wards (Hanoi districts)
	wards := []entities.Ward{
		{ID: uuid.New().String(), Name: "Phuc Xa Ward", Code: "PX-01", District: "Ba Dinh", City: "Hanoi", ContactName: "Nguyen Van Minh", ContactPhone: "+84 24 3823 0001", ContactEmail: "phucxa@hanoi.gov.vn", IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		{ID: uuid.New().String(), Name: "Hang Bac Ward", Code: "HB-02", District: "Hoan Kiem", City: "Hanoi", ContactName: "Tran Thi Lan", ContactPhone: "+84 24 3823 0002", ContactEmail: "hangbac@hanoi.gov.vn", IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		{ID: uuid.New().String(), Name: "Quan Thanh Ward", Code: "QT-03", District: "Ba Dinh", City: "Hanoi", ContactName: "Le Hoang Nam", ContactPhone: "+84 24 3823 0003", ContactEmail: "quanthanh@hanoi.gov.vn", IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		{ID: uuid.New().String(), Name: "Bach Khoa Ward", Code: "BK-04", District: "Hai Ba Trung", City: "Hanoi", ContactName: "Pham Thu Huong", ContactPhone: "+84 24 3823 0004", ContactEmail: "bachkhoa@hanoi.gov.vn", IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()},
	}

	for _, w := range wards {
		if err := wardRepo.Create(ctx, &w); err != nil {
			log.Printf("Failed to create ward %s: %v", w.Name, err)
		}
	}

	// 2. Seed Rooms for each ward
	roomNames := []string{"One-Stop Service Desk", "Records Office", "Accounting"}
	roomsByWard := make(map[string][]entities.WardRoom)
	for _, w := range wards {
		for i, name := range roomNames {
			room := entities.WardRoom{
				ID:        uuid.New().String(),
				WardID:    w.ID,
				Name:      name,
				Floor:     []string{"1", "1", "2"}[i],
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}
			if err := roomRepo.Create(ctx, &room); err != nil {
				log.Printf("Failed to create room %s in %s: %v", name, w.Name, err)
				continue
			}
			roomsByWard[w.ID] = append(roomsByWard[w.ID], room)
		}
	}

	// 3. Seed Members (one clerk per room, one floating member per ward)
	memberNames := []string{"Do Van Hai", "Vu Thi Mai", "Hoang Minh Tuan", "Dang Thu Trang"}
	for wi, w := range wards {
		for ri, room := range roomsByWard[w.ID] {
			member := entities.WardUser{
				ID:        uuid.New().String(),
				WardID:    w.ID,
				WardName:  w.Name,
				RoomID:    room.ID,
				RoomName:  room.Name,
				Role:      entities.WardUserRoleUser,
				FullName:  memberNames[(wi+ri)%len(memberNames)],
				Email:     uuid.New().String()[:8] + "@hanoi.gov.vn",
				IsActive:  true,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}
			if err := memberRepo.Create(ctx, &member); err != nil {
				log.Printf("Failed to create member in %s: %v", w.Name, err)
			}
		}

		// One member left unassigned so the room assignment view has data
		floating := entities.WardUser{
			ID:        uuid.New().String(),
			WardID:    w.ID,
			WardName:  w.Name,
			Role:      entities.WardUserRoleUser,
			FullName:  memberNames[wi%len(memberNames)],
			Email:     uuid.New().String()[:8] + "@hanoi.gov.vn",
			IsActive:  true,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := memberRepo.Create(ctx, &floating); err != nil {
			log.Printf("Failed to create floating member in %s: %v", w.Name, err)
		}
	}

	// 4. Seed Devices, a few assigned to each ward plus an unassigned pool
	deviceTemplates := []struct {
		name     string
		category string
		specs    map[string]string
	}{
		{"Dell OptiPlex 7010", "pc", map[string]string{"brand": "Dell", "model": "OptiPlex 7010", "cpu": "Intel Core i5-13500", "ram": "16GB", "storage": "512GB SSD", "os": "Windows 11"}},
		{"HP LaserJet Pro M404", "printer", map[string]string{"brand": "HP", "model": "LaserJet Pro M404dn"}},
		{"Canon imageFORMULA DR-C225", "scanner", map[string]string{"brand": "Canon", "model": "imageFORMULA DR-C225 II"}},
		{"TP-Link Archer AX23", "router", map[string]string{"brand": "TP-Link", "model": "Archer AX23", "ip_address": "192.168.10.1", "mac_address": "3C:52:A1:00:00:01"}},
	}

	for _, w := range wards {
		for _, tpl := range deviceTemplates {
			wardID := w.ID
			device := entities.Device{
				ID:             uuid.New().String(),
				Name:           tpl.name,
				Category:       tpl.category,
				Status:         entities.DeviceStatusActive,
				SerialNumber:   uuid.New().String()[:13],
				WardID:         &wardID,
				WardName:       w.Name,
				Specifications: tpl.specs,
				CreatedAt:      time.Now(),
				UpdatedAt:      time.Now(),
			}
			if err := deviceRepo.Create(ctx, &device); err != nil {
				log.Printf("Failed to create device %s for %s: %v", tpl.name, w.Name, err)
			}
		}
	}

	// Unassigned pool for the allocation flow
	for i := 0; i < 6; i++ {
		tpl := deviceTemplates[i%len(deviceTemplates)]
		device := entities.Device{
			ID:             uuid.New().String(),
			Name:           tpl.name,
			Category:       tpl.category,
			Status:         entities.DeviceStatusActive,
			SerialNumber:   uuid.New().String()[:13],
			Specifications: tpl.specs,
			CreatedAt:      time.Now(),
			UpdatedAt:      time.Now(),
		}
		if err := deviceRepo.Create(ctx, &device); err != nil {
			log.Printf("Failed to create pool device %s: %v", tpl.name, err)
		}
	}

	log.Println("Seeding completed successfully with Hanoi ward sample data")
}
