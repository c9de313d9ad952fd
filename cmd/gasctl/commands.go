package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/gasdrop-backend/internal/agents"
	product "github.com/angelmondragon/gasdrop-backend/internal/products"
	"github.com/angelmondragon/gasdrop-backend/internal/sessions"
	"github.com/angelmondragon/gasdrop-backend/internal/users"
	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gasdrop-backend/pkg/errors"
	"github.com/angelmondragon/gasdrop-backend/pkg/money"
)

const operatorUID = "gasctl"

// operatorSession acts as a full admin for commands that go through
// permission-checked services.
func operatorSession(uid string) *sessions.Session {
	if uid == "" {
		uid = operatorUID
	}
	return &sessions.Session{UID: uid, Role: enums.RoleAdmin, Permissions: []enums.Permission{}}
}

func newSeedCmd(boot bootstrapFunc) *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the admin account and a sample catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, boot, func(ctx context.Context, a *app) error {
				admin, err := ensureAdmin(ctx, a, email, password, name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "admin account: %s (%s)\n", admin.Email, admin.UID)

				created, err := seedCatalog(ctx, a.products, operatorSession(admin.UID))
				if err != nil {
					return err
				}
				if created == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "catalog already has products; skipped")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d products\n", created)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "admin-email", "", "admin login email")
	cmd.Flags().StringVar(&password, "admin-password", "", "admin login password")
	cmd.Flags().StringVar(&name, "admin-name", "Admin", "admin display name")
	_ = cmd.MarkFlagRequired("admin-email")
	_ = cmd.MarkFlagRequired("admin-password")
	return cmd
}

// ensureAdmin creates the admin account, or returns the existing one when the
// email is already an admin.
func ensureAdmin(ctx context.Context, a *app, email, password, name string) (*users.UserDTO, error) {
	created, err := a.users.CreateStaff(ctx, users.StaffInput{
		Email:       email,
		Password:    password,
		DisplayName: name,
		Role:        enums.RoleAdmin,
	})
	if err == nil {
		return created, nil
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		return nil, err
	}
	existing, lookupErr := a.userRepo.FindByEmail(ctx, email)
	if lookupErr != nil {
		return nil, fmt.Errorf("load existing account: %w", lookupErr)
	}
	if existing.Role != enums.RoleAdmin {
		return nil, fmt.Errorf("%s already exists with role %s", existing.Email, existing.Role)
	}
	return users.FromModel(existing), nil
}

type sampleProduct struct {
	name        string
	kind        enums.ProductType
	weight      string
	price       string
	original    string
	description string
	quantity    int
}

var sampleCatalog = []sampleProduct{
	{"Domestic LPG Cylinder 14.2 kg", enums.ProductTypeGasCylinder, "14.2", "903", "950", "Standard household refill.", 200},
	{"Compact LPG Cylinder 5 kg", enums.ProductTypeGasCylinder, "5", "340", "", "Portable cylinder for small kitchens.", 120},
	{"Commercial LPG Cylinder 19 kg", enums.ProductTypeGasCylinder, "19", "1750", "1820", "For restaurants and canteens.", 60},
	{"Two Burner Gas Stove", enums.ProductTypeAppliance, "", "2499", "2999", "Toughened glass top, brass burners.", 25},
	{"LPG Pressure Regulator", enums.ProductTypeAccessory, "", "275", "", "ISI-marked regulator with safety lock.", 150},
	{"Suraksha Hose Pipe 1.5 m", enums.ProductTypeAccessory, "", "190", "", "Steel-wire reinforced rubber hose.", 150},
}

func (p sampleProduct) input() (product.CreateProductInput, error) {
	price, err := money.Parse(p.price)
	if err != nil {
		return product.CreateProductInput{}, fmt.Errorf("%s price: %w", p.name, err)
	}
	inStock := true
	quantity := p.quantity
	input := product.CreateProductInput{
		Name:        p.name,
		Type:        p.kind,
		Price:       price,
		Description: p.description,
		InStock:     &inStock,
		Quantity:    &quantity,
	}
	if p.weight != "" {
		weight, err := money.Parse(p.weight)
		if err != nil {
			return product.CreateProductInput{}, fmt.Errorf("%s weight: %w", p.name, err)
		}
		input.Weight = &weight
	}
	if p.original != "" {
		original, err := money.Parse(p.original)
		if err != nil {
			return product.CreateProductInput{}, fmt.Errorf("%s original price: %w", p.name, err)
		}
		input.OriginalPrice = &original
	}
	return input, nil
}

// seedCatalog inserts the sample products into an empty catalog and reports
// how many it created.
func seedCatalog(ctx context.Context, svc product.Service, actor *sessions.Session) (int, error) {
	existing, err := svc.ListProducts(ctx, product.ListFilter{})
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for i, p := range sampleCatalog {
		input, err := p.input()
		if err != nil {
			return i, err
		}
		if _, err := svc.CreateProduct(ctx, actor, input); err != nil {
			return i, fmt.Errorf("create %s: %w", p.name, err)
		}
	}
	return len(sampleCatalog), nil
}

func newCreateSubAdminCmd(boot bootstrapFunc) *cobra.Command {
	var email, password, name string
	var permissions []string
	cmd := &cobra.Command{
		Use:   "create-subadmin",
		Short: "Create a sub-admin console account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, boot, func(ctx context.Context, a *app) error {
				created, err := a.users.CreateStaff(ctx, users.StaffInput{
					Email:       email,
					Password:    password,
					DisplayName: name,
					Role:        enums.RoleSubAdmin,
					Permissions: permissions,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), created)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "login password")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringSliceVar(&permissions, "permissions", nil, "comma separated capabilities (dashboard,orders,products,delivery)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newProvisionAgentCmd(boot bootstrapFunc) *cobra.Command {
	var input agents.ProvisionInput
	cmd := &cobra.Command{
		Use:   "provision-agent",
		Short: "Create a delivery agent account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, boot, func(ctx context.Context, a *app) error {
				created, err := a.agents.Provision(ctx, operatorSession(""), input)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), created)
			})
		},
	}
	cmd.Flags().StringVar(&input.Email, "email", "", "login email")
	cmd.Flags().StringVar(&input.Password, "password", "", "login password")
	cmd.Flags().StringVar(&input.Name, "name", "", "agent name")
	cmd.Flags().StringVar(&input.Phone, "phone", "", "contact phone")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
