package main

type productSeed struct {
	name     string
	category string
	unit     string
}

type supplierSeed struct {
	name    string
	contact string
	phone   string
	email   string
}

type locationSeed struct {
	name    string
	address string
}

type stockSeed struct {
	product  string
	quantity int
	limit    int
}

type priceSeed struct {
	supplier string
	product  string
	price    string
}

var seedCategories = []string{
	"Строительные материалы",
	"Электрика",
	"Сантехника",
	"Инструменты",
	"Крепеж",
	"Лакокрасочные материалы",
	"Расходные материалы",
}

var seedProducts = []productSeed{
	{"Цемент М500", "Строительные материалы", "кг"},
	{"Песок", "Строительные материалы", "кг"},
	{"Щебень", "Строительные материалы", "кг"},
	{"Кирпич красный", "Строительные материалы", "шт"},
	{"Кабель ВВГ 3x2.5", "Электрика", "м"},
	{"Автомат 16А", "Электрика", "шт"},
	{"Розетка двойная", "Электрика", "шт"},
	{"Лампочка LED 10W", "Электрика", "шт"},
	{"Труба ПВХ 50мм", "Сантехника", "м"},
	{"Труба ПВХ 110мм", "Сантехника", "м"},
	{`Кран шаровый 1/2"`, "Сантехника", "шт"},
	{"Смеситель", "Сантехника", "шт"},
	{"Дрель ударная", "Инструменты", "шт"},
	{"Перфоратор", "Инструменты", "шт"},
	{"Болгарка", "Инструменты", "шт"},
	{"Молоток", "Инструменты", "шт"},
	{"Саморез 4x50", "Крепеж", "кг"},
	{"Дюбель 8x50", "Крепеж", "шт"},
	{"Гвозди 100мм", "Крепеж", "кг"},
	{"Краска белая 5л", "Лакокрасочные материалы", "упак"},
	{"Грунтовка 5л", "Лакокрасочные материалы", "упак"},
	{"Кисть 50мм", "Расходные материалы", "шт"},
	{"Валик 200мм", "Расходные материалы", "шт"},
	{"Перчатки рабочие", "Расходные материалы", "пар"},
}

var seedSuppliers = []supplierSeed{
	{"BuildMart", "Əli Məmmədov", "+994501234567", "info@buildmart.az"},
	{"Elektrik", "Fatma Əliyeva", "+994502345678", "sales@elektrik.az"},
	{"SantexPro", "Vəli Həsənov", "+994503456789", "info@santexpro.az"},
	{"ToolWorld", "Aysel Kərimova", "+994504567890", "contact@toolworld.az"},
	{"BoyaMarket", "Rəşad Quliyev", "+994505678901", "info@boyamarket.az"},
}

var seedWarehouse = locationSeed{"Центральный Склад (ЦС)", "Bakı, Nobel prospekti 15"}

var seedSites = []locationSeed{
	{`Объект "White City"`, "Bakı, Ağ şəhər"},
	{`Объект "Flame Towers"`, "Bakı, Neftçilər prospekti"},
	{`Объект "Crystal Hall"`, "Bakı, Heydər Əliyev prospekti"},
	{`Объект "Port Baku"`, "Bakı, Nizami küçəsi"},
}

var seedWarehouseStock = []stockSeed{
	{"Цемент М500", 500, 100},
	{"Песок", 1000, 200},
	{"Щебень", 800, 150},
	{"Кирпич красный", 2000, 500},
	{"Кабель ВВГ 3x2.5", 200, 50},
	{"Автомат 16А", 100, 20},
	{"Розетка двойная", 150, 30},
	{"Лампочка LED 10W", 300, 50},
	{"Труба ПВХ 50мм", 100, 20},
	{"Труба ПВХ 110мм", 50, 10},
	{`Кран шаровый 1/2"`, 80, 15},
	{"Смеситель", 30, 5},
	{"Дрель ударная", 15, 3},
	{"Перфоратор", 10, 2},
	{"Болгарка", 12, 3},
	{"Молоток", 40, 10},
	{"Саморез 4x50", 200, 50},
	{"Дюбель 8x50", 500, 100},
	{"Гвозди 100мм", 150, 30},
	{"Краска белая 5л", 50, 10},
	{"Грунтовка 5л", 40, 10},
	{"Кисть 50мм", 100, 20},
	{"Валик 200мм", 80, 15},
	{"Перчатки рабочие", 200, 50},
}

var seedSiteStock = []stockSeed{
	{"Кабель ВВГ 3x2.5", 20, 10},
	{"Автомат 16А", 10, 5},
	{"Розетка двойная", 15, 5},
	{"Труба ПВХ 50мм", 10, 5},
	{"Саморез 4x50", 20, 10},
}

var seedPrices = []priceSeed{
	{"BuildMart", "Цемент М500", "8.50"},
	{"BuildMart", "Песок", "0.05"},
	{"BuildMart", "Щебень", "0.15"},
	{"BuildMart", "Кирпич красный", "0.40"},
	{"Elektrik", "Кабель ВВГ 3x2.5", "2.50"},
	{"Elektrik", "Автомат 16А", "12.00"},
	{"Elektrik", "Розетка двойная", "8.50"},
	{"Elektrik", "Лампочка LED 10W", "3.00"},
	{"SantexPro", "Труба ПВХ 50мм", "4.00"},
	{"SantexPro", "Труба ПВХ 110мм", "8.00"},
	{"SantexPro", `Кран шаровый 1/2"`, "15.00"},
	{"SantexPro", "Смеситель", "85.00"},
	{"ToolWorld", "Дрель ударная", "120.00"},
	{"ToolWorld", "Перфоратор", "250.00"},
	{"ToolWorld", "Болгарка", "95.00"},
	{"ToolWorld", "Молоток", "18.00"},
	{"BoyaMarket", "Краска белая 5л", "35.00"},
	{"BoyaMarket", "Грунтовка 5л", "25.00"},
	{"BoyaMarket", "Кисть 50мм", "2.50"},
	{"BoyaMarket", "Валик 200мм", "8.00"},
}
