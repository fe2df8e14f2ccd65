package core

// Settings groups. Each group is merged with its *Patch type: nil fields are left alone.
type (
	Profile struct {
		Name       string `json:"name"`
		Email      string `json:"email"`
		Avatar     string `json:"avatar,omitempty"`
		Currency   string `json:"currency"`
		DateFormat string `json:"dateFormat"`
		Timezone   string `json:"timezone"`
	}

	ProfilePatch struct {
		Name       *string `json:"name,omitempty"`
		Email      *string `json:"email,omitempty"`
		Avatar     *string `json:"avatar,omitempty"`
		Currency   *string `json:"currency,omitempty"`
		DateFormat *string `json:"dateFormat,omitempty"`
		Timezone   *string `json:"timezone,omitempty"`
	}

	Notifications struct {
		BudgetAlerts         bool `json:"budgetAlerts"`
		TransactionReminders bool `json:"transactionReminders"`
		WeeklyReports        bool `json:"weeklyReports"`
		MonthlyReports       bool `json:"monthlyReports"`
		PushNotifications    bool `json:"pushNotifications"`
		EmailNotifications   bool `json:"emailNotifications"`
	}

	NotificationsPatch struct {
		BudgetAlerts         *bool `json:"budgetAlerts,omitempty"`
		TransactionReminders *bool `json:"transactionReminders,omitempty"`
		WeeklyReports        *bool `json:"weeklyReports,omitempty"`
		MonthlyReports       *bool `json:"monthlyReports,omitempty"`
		PushNotifications    *bool `json:"pushNotifications,omitempty"`
		EmailNotifications   *bool `json:"emailNotifications,omitempty"`
	}

	Security struct {
		BiometricAuth  bool   `json:"biometricAuth"`
		PinCode        string `json:"pinCode"`
		AutoLock       bool   `json:"autoLock"`
		AutoLockTime   int    `json:"autoLockTime"` // minutes
		DataEncryption bool   `json:"dataEncryption"`
	}

	SecurityPatch struct {
		BiometricAuth  *bool   `json:"biometricAuth,omitempty"`
		PinCode        *string `json:"pinCode,omitempty"`
		AutoLock       *bool   `json:"autoLock,omitempty"`
		AutoLockTime   *int    `json:"autoLockTime,omitempty"`
		DataEncryption *bool   `json:"dataEncryption,omitempty"`
	}

	Appearance struct {
		Theme        string `json:"theme"` // light, dark, system
		PrimaryColor string `json:"primaryColor"`
		FontSize     string `json:"fontSize"` // small, medium, large
		Language     string `json:"language"`
	}

	AppearancePatch struct {
		Theme        *string `json:"theme,omitempty"`
		PrimaryColor *string `json:"primaryColor,omitempty"`
		FontSize     *string `json:"fontSize,omitempty"`
		Language     *string `json:"language,omitempty"`
	}

	Preferences struct {
		DefaultTransactionType  TransactionType `json:"defaultTransactionType"`
		DefaultCategory         string          `json:"defaultCategory"`
		ShowDecimalPlaces       bool            `json:"showDecimalPlaces"`
		GroupTransactionsByDate bool            `json:"groupTransactionsByDate"`
		ShowCategoryIcons       bool            `json:"showCategoryIcons"`
		EnableQuickActions      bool            `json:"enableQuickActions"`
	}

	PreferencesPatch struct {
		DefaultTransactionType  *TransactionType `json:"defaultTransactionType,omitempty"`
		DefaultCategory         *string          `json:"defaultCategory,omitempty"`
		ShowDecimalPlaces       *bool            `json:"showDecimalPlaces,omitempty"`
		GroupTransactionsByDate *bool            `json:"groupTransactionsByDate,omitempty"`
		ShowCategoryIcons       *bool            `json:"showCategoryIcons,omitempty"`
		EnableQuickActions      *bool            `json:"enableQuickActions,omitempty"`
	}

	// Settings is a snapshot of all five groups.
	Settings struct {
		Profile       Profile       `json:"profile"`
		Notifications Notifications `json:"notifications"`
		Security      Security      `json:"security"`
		Appearance    Appearance    `json:"appearance"`
		Preferences   Preferences   `json:"preferences"`
	}
)

// DefaultSettings returns the factory defaults restored by a reset.
func DefaultSettings() Settings {
	return Settings{
		Profile: Profile{
			Name:       "John Doe",
			Email:      "john.doe@example.com",
			Currency:   "USD",
			DateFormat: "MM/DD/YYYY",
			Timezone:   "America/New_York",
		},
		Notifications: Notifications{
			BudgetAlerts:         true,
			TransactionReminders: true,
			WeeklyReports:        true,
			MonthlyReports:       true,
			PushNotifications:    true,
			EmailNotifications:   false,
		},
		Security: Security{
			BiometricAuth:  false,
			PinCode:        "",
			AutoLock:       true,
			AutoLockTime:   5,
			DataEncryption: true,
		},
		Appearance: Appearance{
			Theme:        "system",
			PrimaryColor: "#3B82F6",
			FontSize:     "medium",
			Language:     "en",
		},
		Preferences: Preferences{
			DefaultTransactionType:  Expense,
			DefaultCategory:         "Others",
			ShowDecimalPlaces:       true,
			GroupTransactionsByDate: true,
			ShowCategoryIcons:       true,
			EnableQuickActions:      true,
		},
	}
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func (p Profile) Apply(patch ProfilePatch) Profile {
	set(&p.Name, patch.Name)
	set(&p.Email, patch.Email)
	set(&p.Avatar, patch.Avatar)
	set(&p.Currency, patch.Currency)
	set(&p.DateFormat, patch.DateFormat)
	set(&p.Timezone, patch.Timezone)
	return p
}

func (n Notifications) Apply(patch NotificationsPatch) Notifications {
	set(&n.BudgetAlerts, patch.BudgetAlerts)
	set(&n.TransactionReminders, patch.TransactionReminders)
	set(&n.WeeklyReports, patch.WeeklyReports)
	set(&n.MonthlyReports, patch.MonthlyReports)
	set(&n.PushNotifications, patch.PushNotifications)
	set(&n.EmailNotifications, patch.EmailNotifications)
	return n
}

func (s Security) Apply(patch SecurityPatch) Security {
	set(&s.BiometricAuth, patch.BiometricAuth)
	set(&s.PinCode, patch.PinCode)
	set(&s.AutoLock, patch.AutoLock)
	set(&s.AutoLockTime, patch.AutoLockTime)
	set(&s.DataEncryption, patch.DataEncryption)
	return s
}

func (a Appearance) Apply(patch AppearancePatch) Appearance {
	set(&a.Theme, patch.Theme)
	set(&a.PrimaryColor, patch.PrimaryColor)
	set(&a.FontSize, patch.FontSize)
	set(&a.Language, patch.Language)
	return a
}

func (p Preferences) Apply(patch PreferencesPatch) Preferences {
	set(&p.DefaultTransactionType, patch.DefaultTransactionType)
	set(&p.DefaultCategory, patch.DefaultCategory)
	set(&p.ShowDecimalPlaces, patch.ShowDecimalPlaces)
	set(&p.GroupTransactionsByDate, patch.GroupTransactionsByDate)
	set(&p.ShowCategoryIcons, patch.ShowCategoryIcons)
	set(&p.EnableQuickActions, patch.EnableQuickActions)
	return p
}
