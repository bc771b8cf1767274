package provision

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/altosphere/adprovision/internal/ldap"
)

// Attribute names and object classes written to new account entries.
const (
	attrObjectClass       = "objectClass"
	attrCommonName        = "cn"
	attrGivenName         = "givenName"
	attrSurname           = "sn"
	attrDisplayName       = "displayName"
	attrSAMAccountName    = "sAMAccountName"
	attrUserPrincipalName = "userPrincipalName"
	attrMail              = "mail"
	attrTelephoneNumber   = "telephoneNumber"
	attrAccountControl    = "userAccountControl"
	attrDistinguishedName = "distinguishedName"
	attrMember            = "member"
)

var userObjectClasses = []string{"top", "person", "organizationalPerson", "user"}

// Provisioner executes the account creation protocol against an open
// directory session. One Provisioner serves one configuration; its
// Provision method runs the protocol once per identity.
type Provisioner struct {
	dir         ldap.Directory
	baseDN      string
	containerDN string
	domain      string
	groups      []string
	strategies  []PasswordStrategy
	log         zerolog.Logger
}

// NewProvisioner builds a Provisioner over dir using the resolved
// directory configuration.
func NewProvisioner(dir ldap.Directory, cfg *DirectoryConfig) *Provisioner {
	return &Provisioner{
		dir:         dir,
		baseDN:      BaseDN(cfg.Domain),
		containerDN: ResolveContainerDN(cfg),
		domain:      cfg.Domain,
		groups:      cfg.DefaultGroups,
		strategies:  []PasswordStrategy{UnicodePwdStrategy{}, AdminResetStrategy{}},
		log:         zerolog.Nop(),
	}
}

// WithLogger returns the Provisioner with its logger replaced.
func (p *Provisioner) WithLogger(log zerolog.Logger) *Provisioner {
	p.log = log
	return p
}

// Provision runs the full protocol for one identity: existence check,
// entry creation, password set, account enable and verification, then
// best-effort group membership. It returns exactly one terminal
// result; the generated password appears only in the returned value
// and is never logged.
func (p *Provisioner) Provision(ctx context.Context, identity PersonIdentity) ProvisioningResult {
	if err := identity.Validate(); err != nil {
		return Failure("invalid identity: %s", err)
	}

	log := p.log.With().Str("login", identity.LoginName).Logger()

	existingDN, found, err := p.FindAccount(ctx, identity.LoginName)
	if err != nil {
		return Failure("%s", stepErr(StepExistenceCheck, identity.LoginName, err))
	}
	if found {
		log.Info().Str("dn", existingDN).Msg("account already exists, refusing to provision")
		return Failure("account %s already exists at %s", identity.LoginName, existingDN)
	}

	userDN := p.AccountDN(identity)
	if err := p.createEntry(ctx, userDN, identity); err != nil {
		if ldap.IsConflictError(err) {
			// Lost the race against a concurrent creation; same outcome
			// as finding the account up front.
			log.Info().Str("dn", userDN).Msg("account appeared concurrently, refusing to provision")
			return Failure("account %s already exists at %s", identity.LoginName, userDN)
		}
		return Failure("%s", stepErr(StepCreate, identity.LoginName, err))
	}
	log.Info().Str("dn", userDN).Msg("account entry created")

	password, err := GeneratePassword()
	if err != nil {
		return Failure("%s", stepErr(StepSetPassword, identity.LoginName, err))
	}

	if err := p.setPassword(ctx, log, userDN, password); err != nil {
		return Failure("%s", stepErr(StepSetPassword, identity.LoginName, err))
	}

	if err := p.enableAccount(ctx, userDN); err != nil {
		return Failure("%s", stepErr(StepEnable, identity.LoginName, err))
	}

	if err := p.verifyEnabled(ctx, userDN); err != nil {
		return Failure("%s", stepErr(StepVerify, identity.LoginName, err))
	}
	log.Info().Str("dn", userDN).Msg("account enabled and verified")

	p.addToGroups(ctx, log, userDN)

	return Success(identity.LoginName, password)
}

// FindAccount searches the directory root for an account with the
// given login name and returns its DN when present.
func (p *Provisioner) FindAccount(ctx context.Context, loginName string) (dn string, found bool, err error) {
	result, err := p.dir.Search(ctx, &ldap.SearchRequest{
		BaseDN:     p.baseDN,
		Scope:      ldap.ScopeWholeSubtree,
		Filter:     fmt.Sprintf("(%s=%s)", attrSAMAccountName, ldap.EscapeFilterValue(loginName)),
		Attributes: []string{attrDistinguishedName},
		SizeLimit:  1,
	})
	if err != nil {
		return "", false, err
	}
	if len(result.Entries) == 0 {
		return "", false, nil
	}
	return result.Entries[0].DN, true, nil
}

// AccountDN returns the DN a new account for identity is created at.
func (p *Provisioner) AccountDN(identity PersonIdentity) string {
	return "CN=" + ldap.EscapeDNValue(identity.DisplayName()) + "," + p.containerDN
}

func (p *Provisioner) createEntry(ctx context.Context, dn string, identity PersonIdentity) error {
	attributes := []ldap.Attribute{
		{Name: attrObjectClass, Values: userObjectClasses},
		{Name: attrCommonName, Values: []string{identity.DisplayName()}},
		{Name: attrSAMAccountName, Values: []string{identity.LoginName}},
		{Name: attrUserPrincipalName, Values: []string{identity.UPN(p.domain)}},
		{Name: attrDisplayName, Values: []string{identity.DisplayName()}},
	}
	if identity.GivenName != "" {
		attributes = append(attributes, ldap.Attribute{Name: attrGivenName, Values: []string{identity.GivenName}})
	}
	if identity.Surname != "" {
		attributes = append(attributes, ldap.Attribute{Name: attrSurname, Values: []string{identity.Surname}})
	}
	if identity.EmailAddress != "" {
		attributes = append(attributes, ldap.Attribute{Name: attrMail, Values: []string{identity.EmailAddress}})
	}
	if identity.Phone != "" {
		attributes = append(attributes, ldap.Attribute{Name: attrTelephoneNumber, Values: []string{identity.Phone}})
	}

	return p.dir.Add(ctx, &ldap.AddRequest{DN: dn, Attributes: attributes})
}

// setPassword tries each password strategy in order and stops at the
// first success. The password value itself never reaches the logs.
func (p *Provisioner) setPassword(ctx context.Context, log zerolog.Logger, dn, password string) error {
	var lastErr error
	for _, strategy := range p.strategies {
		err := strategy.Set(ctx, p.dir, dn, password)
		if err == nil {
			log.Debug().Str("strategy", strategy.Name()).Msg("initial password set")
			return nil
		}
		log.Warn().Err(err).Str("strategy", strategy.Name()).Msg("password strategy failed")
		lastErr = err
	}
	return lastErr
}

func (p *Provisioner) enableAccount(ctx context.Context, dn string) error {
	return p.dir.Modify(ctx, &ldap.ModifyRequest{
		DN: dn,
		ReplaceAttributes: []ldap.Attribute{
			{Name: attrAccountControl, Values: []string{fmt.Sprintf("%d", ldap.UACEnabled)}},
		},
	})
}

// verifyEnabled reads the entry back and checks that the disabled and
// password-expired control bits are clear.
func (p *Provisioner) verifyEnabled(ctx context.Context, dn string) error {
	result, err := p.dir.Search(ctx, &ldap.SearchRequest{
		BaseDN:     dn,
		Scope:      ldap.ScopeBaseObject,
		Filter:     "(objectClass=user)",
		Attributes: []string{attrAccountControl},
		SizeLimit:  1,
	})
	if err != nil {
		return err
	}
	if len(result.Entries) == 0 {
		return fmt.Errorf("entry %s not found after creation", dn)
	}

	raw := result.Entries[0].GetAttributeValue(attrAccountControl)
	uac, err := ldap.ParseUAC(raw)
	if err != nil {
		return fmt.Errorf("entry %s has unreadable %s %q", dn, attrAccountControl, raw)
	}
	if !ldap.IsAccountEnabled(uac) {
		return fmt.Errorf("entry %s is still disabled (%s=%d)", dn, attrAccountControl, uac)
	}
	return nil
}

// addToGroups adds the account to each configured default group.
// Failures are logged and skipped; membership never fails the run.
func (p *Provisioner) addToGroups(ctx context.Context, log zerolog.Logger, userDN string) {
	for _, group := range p.groups {
		groupDN, err := p.findGroup(ctx, group)
		if err != nil {
			log.Warn().Err(err).Str("group", group).Msg("skipping group, lookup failed")
			continue
		}

		err = p.dir.Modify(ctx, &ldap.ModifyRequest{
			DN:            groupDN,
			AddAttributes: []ldap.Attribute{{Name: attrMember, Values: []string{userDN}}},
		})
		switch {
		case err == nil:
			log.Info().Str("group", group).Msg("added to group")
		case ldap.IsConflictError(err):
			// Already a member.
		default:
			log.Warn().Err(err).Str("group", group).Msg("skipping group, add failed")
		}
	}
}

func (p *Provisioner) findGroup(ctx context.Context, name string) (string, error) {
	escaped := ldap.EscapeFilterValue(name)
	result, err := p.dir.Search(ctx, &ldap.SearchRequest{
		BaseDN:     p.baseDN,
		Scope:      ldap.ScopeWholeSubtree,
		Filter:     fmt.Sprintf("(&(objectClass=group)(|(%s=%s)(%s=%s)))", attrSAMAccountName, escaped, attrCommonName, escaped),
		Attributes: []string{attrDistinguishedName},
		SizeLimit:  1,
	})
	if err != nil {
		return "", err
	}
	if len(result.Entries) == 0 {
		return "", fmt.Errorf("group %q not found", name)
	}
	return result.Entries[0].DN, nil
}
