package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
	"github.com/aryan0dhankhar/freightlink/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/freightlink/internal/search"
	"github.com/aryan0dhankhar/freightlink/internal/service"
	"github.com/aryan0dhankhar/freightlink/internal/tenancy"
)

// clientMinInterval throttles company lookups like an interactive client.
const clientMinInterval = 10 * time.Second

var log = slog.New(slog.NewTextHandler(io.Discard, nil))

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	if os.Getenv("FREIGHTLINK_DEBUG") != "" {
		log = logger.New(os.Stderr, "debug")
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "auth":
		err = handleAuth(args)
	case "me":
		err = showMe()
	case "company":
		err = handleCompany(args)
	case "invite":
		err = handleInvite(args)
	case "search":
		err = runSearch(args)
	case "tours":
		err = listTours()
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}
}

func client() *apiClient {
	return newAPIClient(getAPIURL(), loadSession().Token)
}

func handleAuth(args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: freightlink auth <register|login|logout|who>")
		return nil
	}

	switch args[0] {
	case "register":
		return registerUser(args[1:])
	case "login":
		return loginUser(args[1:])
	case "logout":
		_ = os.Remove(sessionFile())
		fmt.Println("✓ Logged out")
		return nil
	case "who":
		s := loadSession()
		if s.Token == "" {
			fmt.Println("Not logged in")
			return nil
		}
		fmt.Printf("✓ Logged in as %s (%s)\n", s.Email, s.UserID)
		return nil
	default:
		return fmt.Errorf("unknown auth command: %s", args[0])
	}
}

func registerUser(args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "user email")
	password := fs.String("password", "", "password")
	first := fs.String("first-name", "", "first name")
	last := fs.String("last-name", "", "last name")
	language := fs.String("language", "en", "preferred language")
	_ = fs.Parse(args)

	if *email == "" || *password == "" {
		fs.PrintDefaults()
		return fmt.Errorf("email and password are required")
	}

	var result service.AuthResult
	err := client().do(context.Background(), http.MethodPost, "/api/auth/register", service.RegisterInput{
		Email:     *email,
		Password:  *password,
		FirstName: *first,
		LastName:  *last,
		Language:  *language,
	}, &result)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	fmt.Printf("✓ User registered: %s\n", result.Email)
	return saveSession(session{Token: result.Token, UserID: result.UserID, Email: result.Email})
}

func loginUser(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "user email")
	password := fs.String("password", "", "password")
	_ = fs.Parse(args)

	if *email == "" || *password == "" {
		fs.PrintDefaults()
		return fmt.Errorf("email and password are required")
	}

	var result service.AuthResult
	err := client().do(context.Background(), http.MethodPost, "/api/auth/login",
		map[string]string{"email": *email, "password": *password}, &result)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	fmt.Printf("✓ Logged in as: %s\n", result.Email)
	return saveSession(session{Token: result.Token, UserID: result.UserID, Email: result.Email})
}

// showMe runs a tenancy session for the stored identity and prints where
// the client would land.
func showMe() error {
	s := loadSession()
	c := client()
	resolver := tenancy.NewResolver(c, log, tenancy.WithMinInterval(clientMinInterval))
	sess := tenancy.NewSession(c, resolver, log)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	events := make(chan tenancy.AuthEvent)
	close(events)
	sess.Run(ctx, s.UserID, events)
	st, err := sess.WaitReady(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()
	if !st.Authenticated() {
		fmt.Fprintln(w, "SIGNED IN\tno")
	} else {
		fmt.Fprintf(w, "IDENTITY\t%s\n", st.Identity)
	}
	if st.Profile != nil {
		fmt.Fprintf(w, "NAME\t%s %s\n", st.Profile.FirstName, st.Profile.LastName)
	}
	if st.HasCompany {
		fmt.Fprintf(w, "COMPANY\t%s (%s)\n", st.Company.Name, st.Company.Type)
		fmt.Fprintf(w, "ROLE\t%s (%s)\n", st.Role, st.Kind)
	}
	fmt.Fprintf(w, "HOME\t%s\n", tenancy.HomeRoute(st))
	return nil
}

func handleCompany(args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: freightlink company <create|show|members>")
		return nil
	}
	ctx := context.Background()

	switch args[0] {
	case "create":
		fs := flag.NewFlagSet("create", flag.ExitOnError)
		typ := fs.String("type", "", "shipper or subcontractor")
		name := fs.String("name", "", "company name")
		city := fs.String("city", "", "city")
		country := fs.String("country", "", "ISO country code")
		vat := fs.String("vat", "", "VAT id")
		_ = fs.Parse(args[1:])

		var c domain.Company
		err := client().do(ctx, http.MethodPost, "/api/companies", service.CompanyInput{
			Type:    domain.CompanyType(*typ),
			Name:    *name,
			City:    *city,
			Country: *country,
			VATID:   *vat,
		}, &c)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Company created: %s (%s)\n", c.Name, c.ID)
		return nil
	case "show":
		var c domain.Company
		if err := client().do(ctx, http.MethodGet, "/api/company", nil, &c); err != nil {
			return err
		}
		fmt.Printf("%s\t%s\t%s %s\n", c.ID, c.Type, c.City, c.Country)
		return nil
	case "members":
		var members []domain.Member
		if err := client().do(ctx, http.MethodGet, "/api/company/members", nil, &members); err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "USER\tNAME\tROLE")
		for _, m := range members {
			fmt.Fprintf(w, "%s\t%s %s\t%s\n", m.UserID, m.FirstName, m.LastName, m.Role)
		}
		return w.Flush()
	default:
		return fmt.Errorf("unknown company command: %s", args[0])
	}
}

func handleInvite(args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: freightlink invite <create|list|accept>")
		return nil
	}
	ctx := context.Background()

	switch args[0] {
	case "create":
		fs := flag.NewFlagSet("create", flag.ExitOnError)
		email := fs.String("email", "", "invitee email")
		role := fs.String("role", string(domain.RoleEmployee), "membership role")
		_ = fs.Parse(args[1:])

		var out struct {
			ID    string `json:"id"`
			Token string `json:"token"`
		}
		err := client().do(ctx, http.MethodPost, "/api/company/invitations",
			map[string]string{"email": *email, "role": *role}, &out)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Invitation %s created, token: %s\n", out.ID, out.Token)
		return nil
	case "list":
		var list []service.InvitationView
		if err := client().do(ctx, http.MethodGet, "/api/company/invitations", nil, &list); err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tEMAIL\tROLE\tSTATUS\tEXPIRES")
		for _, inv := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", inv.ID, inv.Email, inv.Role, inv.Status, inv.ExpiresAt.Format(time.DateOnly))
		}
		return w.Flush()
	case "accept":
		if len(args) < 2 {
			return fmt.Errorf("usage: freightlink invite accept <token>")
		}
		return acceptInvitation(ctx, args[1])
	default:
		return fmt.Errorf("unknown invite command: %s", args[0])
	}
}

func acceptInvitation(ctx context.Context, token string) error {
	s := loadSession()
	c := client()

	var inv service.InvitationView
	if err := c.do(ctx, http.MethodGet, "/api/invitations/by-token/"+token, nil, &inv); err != nil {
		return err
	}
	if inv.Status != domain.InvitationPending {
		return fmt.Errorf("invitation is %s", inv.Status)
	}

	invitedAt := inv.InvitedAt
	req := service.AcceptRequest{
		UserID:       s.UserID,
		InvitationID: inv.ID,
		CompanyID:    inv.CompanyID,
		Role:         inv.Role,
		InvitedBy:    inv.InvitedBy,
		InvitedAt:    &invitedAt,
	}
	path := os.Getenv("FREIGHTLINK_ACCEPT_PATH")
	if path == "" {
		path = "/functions/v1/accept-invitation"
	}
	if err := c.do(ctx, http.MethodPost, path, req, nil); err != nil {
		return err
	}
	fmt.Printf("✓ Joined company %s as %s\n", inv.CompanyID, inv.Role)
	return nil
}

// runSearch drives a search.Engine the way an interactive client does:
// preferences seed the filter, flags patch it and free text is debounced.
func runSearch(args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	text := fs.String("text", "", "free text")
	regions := fs.String("region", "", "comma separated country codes")
	vehicles := fs.String("vehicle", "", "comma separated vehicle types")
	adr := fs.Bool("adr", false, "require ADR certificate")
	noDefaults := fs.Bool("no-defaults", false, "ignore saved preferences")
	_ = fs.Parse(args)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	c := client()

	var opts []search.Option
	if !*noDefaults {
		f, err := c.DefaultFilter(ctx)
		if err != nil {
			return err
		}
		opts = append(opts, search.WithInitialFilter(f))
	}
	engine := search.NewEngine(ctx, c, log, opts...)
	defer engine.Close()

	var patches []search.Patch
	if *regions != "" {
		patches = append(patches, search.SetRegion(splitList(*regions)...))
	}
	if *vehicles != "" {
		patches = append(patches, search.SetVehicleTypes(splitList(*vehicles)...))
	}
	if *adr {
		cert := engine.Filter().Certificates
		cert.ADR = true
		patches = append(patches, search.SetCertificates(cert))
	}
	if len(patches) > 0 {
		engine.UpdateFilters(patches...)
	} else {
		engine.Start()
	}
	if *text != "" {
		engine.SetSearchText(*text)
	}
	engine.Wait()

	snap := engine.Snapshot()
	if snap.Failed {
		return fmt.Errorf("search failed")
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COMPANY\tCITY\tCOUNTRY\tAVAILABILITY\tRATING\tVEHICLES")
	for _, r := range snap.Results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f (%d)\t%d\n",
			r.CompanyName, r.City, r.Country, r.Availability, r.AvgRating, r.RatingCount, r.VehicleCount)
	}
	return w.Flush()
}

func listTours() error {
	var tours []domain.Tour
	if err := client().do(context.Background(), http.MethodGet, "/api/tours", nil, &tours); err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "REFERENCE\tROUTE\tSTATUS\tPRICE")
	for _, t := range tours {
		fmt.Fprintf(w, "%s\t%s %s → %s %s\t%s\t%.2f %s\n",
			t.Reference, t.PickupCity, t.PickupCountry, t.DeliveryCity, t.DeliveryCountry, t.Status, t.Price, t.Currency)
	}
	return w.Flush()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printUsage() {
	fmt.Print(`FreightLink CLI

Usage:
  freightlink <command> [options]

Commands:
  auth     User authentication (register, login, logout, who)
  me       Show profile, company and home route
  company  Company operations (create, show, members)
  invite   Invitations (create, list, accept)
  search   Search subcontractors
  tours    List tours
  help     Show this help message

Environment Variables:
  FREIGHTLINK_API    API endpoint (default: http://localhost:8080)
  FREIGHTLINK_DEBUG  Log client activity to stderr

Examples:
  freightlink auth register -email dispo@nordfracht.de -password secret123
  freightlink company create -type shipper -name Nordfracht -country DE
  freightlink search -region DE,PL -vehicle mega -text kühl
`)
}
