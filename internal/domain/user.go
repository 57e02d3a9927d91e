package domain

type User struct {
	ID    string `db:"id" json:"id"`
	Email string `db:"email" json:"email"`
	Name  string `db:"name" json:"name"`
	Hash  string `db:"password_hash" json:"-"`
}

// Areas and PaymentMethods are the choices offered at checkout.
var (
	Areas          = []string{"Area A", "Area B", "Area C", "Area D", "Other"}
	PaymentMethods = []string{"MoMo", "OM", "Cash"}
)
