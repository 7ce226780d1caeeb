package favorites

// Kind: вид отметки рецепта пользователем; значение совпадает с таблицей.
type Kind string

const (
	KindFavorite Kind = "favorites"
	KindCart     Kind = "shopping_cart"
)
