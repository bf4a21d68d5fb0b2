package main

import (
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
)

var demoSalon = model.Salon{
	ID:       "6f1c2f4e-1d0a-4d7b-9a57-0c3f2b8e5a01",
	Name:     "Demo Salon",
	Timezone: "UTC",
	WorkingHours: map[time.Weekday]string{
		time.Monday:    "09:00-18:00",
		time.Tuesday:   "09:00-18:00",
		time.Wednesday: "09:00-18:00",
		time.Thursday:  "09:00-20:00",
		time.Friday:    "09:00-20:00",
		time.Saturday:  "10:00-16:00",
		time.Sunday:    "closed",
	},
}

var demoServices = []model.Service{
	{ID: "0b5e8f0e-7c1d-4a52-8f5e-3d2b1a0c9e11", SalonID: demoSalon.ID, Name: "Haircut", DurationMin: 45, PriceCents: 3500, Active: true},
	{ID: "0b5e8f0e-7c1d-4a52-8f5e-3d2b1a0c9e12", SalonID: demoSalon.ID, Name: "Color", DurationMin: 90, PriceCents: 9000, Active: true},
	{ID: "0b5e8f0e-7c1d-4a52-8f5e-3d2b1a0c9e13", SalonID: demoSalon.ID, Name: "Blow dry", DurationMin: 30, PriceCents: 2500, Active: true},
}

var demoStaff = []model.Staff{
	{ID: "a3d9c7b2-5e14-4f6a-8b21-9c0d1e2f3a41", SalonID: demoSalon.ID, Name: "Ana", Active: true, SpokenLocales: []string{"en", "es"}},
	{ID: "a3d9c7b2-5e14-4f6a-8b21-9c0d1e2f3a42", SalonID: demoSalon.ID, Name: "Ben", Active: true, SpokenLocales: []string{"en"}},
}
