package models

// Plan представляет тариф из статического каталога.
// Каталог фиксируется при старте процесса и не изменяется
// ни пользователями, ни хранилищем.
type Plan struct {
	ID    string // Идентификатор тарифа (1month, 3months, ...)
	Name  string // Отображаемое название
	Price int64  // Цена в целых единицах валюты
	Days  int    // Длительность в днях
}
