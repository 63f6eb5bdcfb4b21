package ledger

// TaskTemplate is one entry of the default task set a fresh week is seeded
// with.
type TaskTemplate struct {
	Title    string
	Reward   int
	ImageURL string
}

const bucketURL = "https://storage.googleapis.com/kidslikev2_bucket/"

var defaultTasks = map[string][]TaskTemplate{
	"en": {
		{Title: "Make the bed", Reward: 3, ImageURL: bucketURL + "Rectangle%2025.png"},
		{Title: "Vacuum-clean", Reward: 5, ImageURL: bucketURL + "Rectangle%2025%20(1).png"},
		{Title: "To water flowers", Reward: 2, ImageURL: bucketURL + "Rectangle%2025%20(2).png"},
		{Title: "Read a book", Reward: 4, ImageURL: bucketURL + "Rectangle%2025%20(3).png"},
		{Title: "Throw out the trash", Reward: 1, ImageURL: bucketURL + "Rectangle%2025%20(4).png"},
		{Title: "Brush your teeth", Reward: 4, ImageURL: bucketURL + "Rectangle%2025%20(5).png"},
		{Title: "Sweep", Reward: 4, ImageURL: bucketURL + "Rectangle%2025%20(6).png"},
		{Title: "Collect toys", Reward: 2, ImageURL: bucketURL + "Rectangle%2025%20(7).png"},
	},
	"ru": {
		{Title: "Застелить постель", Reward: 3, ImageURL: bucketURL + "Rectangle%2025.png"},
		{Title: "Пропылесосить", Reward: 5, ImageURL: bucketURL + "Rectangle%2025%20(1).png"},
		{Title: "Полить цветы", Reward: 2, ImageURL: bucketURL + "Rectangle%2025%20(2).png"},
		{Title: "Почитать книгу", Reward: 4, ImageURL: bucketURL + "Rectangle%2025%20(3).png"},
		{Title: "Выкинуть мусор", Reward: 1, ImageURL: bucketURL + "Rectangle%2025%20(4).png"},
		{Title: "Почистить зубы", Reward: 4, ImageURL: bucketURL + "Rectangle%2025%20(5).png"},
		{Title: "Подмести", Reward: 4, ImageURL: bucketURL + "Rectangle%2025%20(6).png"},
		{Title: "Собрать игрушки", Reward: 2, ImageURL: bucketURL + "Rectangle%2025%20(7).png"},
	},
	"pl": {
		{Title: "Pościelić łóżko", Reward: 3, ImageURL: bucketURL + "Rectangle%2025.png"},
		{Title: "Odkurzyć", Reward: 5, ImageURL: bucketURL + "Rectangle%2025%20(1).png"},
		{Title: "Podlać kwiaty", Reward: 2, ImageURL: bucketURL + "Rectangle%2025%20(2).png"},
		{Title: "Przeczytać książkę", Reward: 4, ImageURL: bucketURL + "Rectangle%2025%20(3).png"},
		{Title: "Wyrzucić śmieci", Reward: 1, ImageURL: bucketURL + "Rectangle%2025%20(4).png"},
		{Title: "Umyć zęby", Reward: 4, ImageURL: bucketURL + "Rectangle%2025%20(5).png"},
		{Title: "Zamieść", Reward: 4, ImageURL: bucketURL + "Rectangle%2025%20(6).png"},
		{Title: "Pozbierać zabawki", Reward: 2, ImageURL: bucketURL + "Rectangle%2025%20(7).png"},
	},
}

// DefaultTasks returns the seed task set for a locale, falling back to
// English for unknown locales.
func DefaultTasks(locale string) []TaskTemplate {
	if tasks, ok := defaultTasks[locale]; ok {
		return tasks
	}
	return defaultTasks["en"]
}
