package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roomly/roomly/internal/auth"
	"github.com/roomly/roomly/internal/bill"
	"github.com/roomly/roomly/internal/maintenance"
	"github.com/roomly/roomly/internal/property"
	"github.com/roomly/roomly/internal/tenancy"
	"github.com/roomly/roomly/internal/user"
)

const seedPassword = "password123"

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Fill the local database with demo data",
		Long: `Create a demo landlord (landlord@example.com) and tenant (tenant@example.com),
both with password "password123", plus two properties with bills and
maintenance around the current month. Writes straight to the --db database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := openDB()
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer closeDB(database)

			if err := seed(database, time.Now()); err != nil {
				return err
			}
			fmt.Printf("✓ Seeded demo data. Sign in as landlord@example.com or tenant@example.com with %q.\n", seedPassword)
			return nil
		},
	}
}

func seed(database *sql.DB, now time.Time) error {
	users := user.NewRepository(database)
	propRepo := property.NewRepository(database)
	accounts := auth.NewAccounts(users, auth.NewTokens(nil))
	props := property.NewService(propRepo)
	members := tenancy.NewService(propRepo, users)
	clock := func() time.Time { return now }
	bills := bill.NewService(bill.NewRepository(database), nil, clock)
	events := maintenance.NewService(maintenance.NewRepository(database), clock)

	landlord, err := accounts.SignUp(auth.SignUpRequest{
		Name: "Lena Landlord", Email: "landlord@example.com", Role: string(user.RoleLandlord),
		Password: seedPassword, PasswordConfirmation: seedPassword,
	})
	if errors.Is(err, user.ErrEmailTaken) {
		return errors.New("database already seeded (landlord@example.com exists)")
	}
	if err != nil {
		return fmt.Errorf("creating landlord: %w", err)
	}
	tenant, err := accounts.SignUp(auth.SignUpRequest{
		Name: "Toby Tenant", Email: "tenant@example.com", Role: string(user.RoleTenant),
		Password: seedPassword, PasswordConfirmation: seedPassword,
	})
	if err != nil {
		return fmt.Errorf("creating tenant: %w", err)
	}

	homes := []property.NewProperty{
		{Address: "12 Elm Street, Apt 3", Rent: "1450", Bedrooms: 2, Bathrooms: 1, AreaSqft: 850},
		{Address: "400 Harbor View Rd", Rent: "2,300.00", Bedrooms: 3, Bathrooms: 2.5, AreaSqft: 1600},
	}
	day := func(n int) time.Time { return now.AddDate(0, 0, n) }

	for i, in := range homes {
		p, err := props.Add(landlord, in)
		if err != nil {
			return fmt.Errorf("adding property %q: %w", in.Address, err)
		}
		if i == 0 {
			if _, err := members.AddTenant(tenant.Email, p.ID); err != nil {
				return fmt.Errorf("adding tenant: %w", err)
			}
		}

		for _, nb := range []bill.NewBill{
			{Description: "Rent", Amount: in.Rent, DueDate: day(-3)},
			{Description: "Water", Amount: "48.20", DueDate: day(4)},
			{Description: "Electricity", Amount: "92.75", DueDate: day(20)},
			{Description: "Last month's rent", Amount: in.Rent, DueDate: day(-30)},
		} {
			nb.PropertyID = p.ID
			b, err := bills.Add(nb, nil)
			if err != nil {
				return fmt.Errorf("adding bill: %w", err)
			}
			if nb.DueDate.Before(now.AddDate(0, 0, -7)) {
				if _, err := bills.Pay(b.ID); err != nil {
					return fmt.Errorf("paying bill: %w", err)
				}
			}
		}

		for _, ne := range []maintenance.NewEvent{
			{Description: "Furnace inspection", ScheduledAt: day(-5)},
			{Description: "Gutter cleaning", ScheduledAt: day(1), Notes: "Ladder access from the side gate"},
			{Description: "Smoke detector check", ScheduledAt: day(9)},
			{Description: "Window replacement", ScheduledAt: day(12)},
		} {
			ne.PropertyID = p.ID
			ne.CreatedBy = landlord.ID
			e, err := events.Add(ne)
			if err != nil {
				return fmt.Errorf("adding maintenance: %w", err)
			}
			if ne.Description == "Window replacement" {
				if _, err := events.ChangeStatus(e.ID, maintenance.StatusCancelled); err != nil {
					return fmt.Errorf("cancelling maintenance: %w", err)
				}
			}
		}
	}
	return nil
}
