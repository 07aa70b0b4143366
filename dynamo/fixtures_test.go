package dynamo

import (
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/sports-festival/festival-registration/registration"
	"github.com/sports-festival/festival-registration/sports"
)

func testSport(name string) sports.Sport {
	return sports.Sport{
		ID:          uuid.New(),
		Version:     1,
		Name:        name,
		Category:    sports.INDIVIDUAL,
		AgeGroups:   []string{"U12", "U14"},
		Disciplines: []string{"100m"},
	}
}

func testStudent(email string, sport sports.Sport) registration.Student {
	age := 11
	return registration.Student{
		ID:           uuid.New(),
		Version:      1,
		RegisteredAt: time.Now().UTC().Truncate(time.Millisecond),
		Email:        email,
		Details: registration.PersonalDetails{
			FirstName:   "Amani",
			LastName:    "Otieno",
			DateOfBirth: "2015-03-14",
			Gender:      "FEMALE",
			Email:       email,
			Phone:       "+254712345678",
		},
		Documents: registration.Documents{Files: []registration.DocumentRef{
			{Type: "BIRTH_CERTIFICATE", FileName: "birth.pdf", URL: "https://files.example.com/birth.pdf"},
		}},
		GuardianMedical: registration.GuardianMedical{
			Guardians:    []registration.Guardian{{Name: "Peter Otieno", Relationship: "Father", Phone: "+254700000001"}},
			ConsentGiven: true,
		},
		Sports: registration.SportsSelection{
			ParticipantAge: &age,
			Entries: []registration.SportEntry{
				{SportID: sport.ID, SportName: sport.Name, AgeGroup: "U12", Disciplines: []string{"100m"}, Participants: 1},
			},
		},
		Payment:  registration.PaymentDetails{Method: "MPESA", Reference: "QK12ABC34D", PayerName: "Peter Otieno", AmountPaid: 1700, Currency: "KES"},
		TotalFee: money.New(1700, "KES"),
	}
}

func testInstitution(email string, sport sports.Sport) registration.Institution {
	return registration.Institution{
		ID:           uuid.New(),
		Version:      1,
		RegisteredAt: time.Now().UTC().Truncate(time.Millisecond),
		Email:        email,
		Details: registration.InstitutionDetails{
			Name:  "Kilimani Primary",
			Type:  "PRIMARY",
			Email: email,
		},
		Sports: registration.SportsSelection{Entries: []registration.SportEntry{
			{SportID: sport.ID, SportName: sport.Name, AgeGroup: "U14", Participants: 12},
		}},
		Payment:  registration.PaymentDetails{Method: "CASH", PayerName: "Grace Wanjiru", AmountPaid: 0, Currency: "KES"},
		TotalFee: money.New(12000, "KES"),
	}
}

// registered returns sport as it looks after one more registration.
func registered(sport sports.Sport, students int, institutions int) sports.Sport {
	sport.Version++
	sport.NumStudents += students
	sport.NumInstitutions += institutions
	return sport
}
