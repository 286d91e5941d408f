package result

// DefaultTable is used when no band file is configured. It splits a 0-100
// score into four levels of business readiness.
func DefaultTable() Table {
	return Table{
		Bands: []Band{
			{
				Key: "beginner",
				Min: 0,
				Max: 45,
				Title: Localized{
					"en": "Beginner",
					"uz": "Boshlovchi",
				},
				Feedback: Localized{
					"en": "You are at the very start. Focus on the basics: know your customer, your costs and your numbers.",
					"uz": "Siz yo'lning boshidasiz. Asosiy narsalarga e'tibor bering: mijozingiz, xarajatlaringiz va raqamlaringizni biling.",
				},
			},
			{
				Key: "practitioner",
				Min: 46,
				Max: 65,
				Title: Localized{
					"en": "Practitioner",
					"uz": "Amaliyotchi",
				},
				Feedback: Localized{
					"en": "You already run things day to day. Build repeatable processes and start measuring what works.",
					"uz": "Siz ishni kundalik yuritasiz. Takrorlanadigan jarayonlar yarating va nima ishlashini o'lchashni boshlang.",
				},
			},
			{
				Key: "entrepreneur",
				Min: 66,
				Max: 85,
				Title: Localized{
					"en": "Entrepreneur",
					"uz": "Tadbirkor",
				},
				Feedback: Localized{
					"en": "You think like an owner. Delegate more and invest in the channels that bring your best customers.",
					"uz": "Siz egasi kabi fikrlaysiz. Ko'proq vakolat bering va eng yaxshi mijozlarni olib keladigan kanallarga sarmoya kiriting.",
				},
			},
			{
				Key: "professional",
				Min: 86,
				Max: 100,
				Title: Localized{
					"en": "Professional",
					"uz": "Professional",
				},
				Feedback: Localized{
					"en": "Your business runs on systems. Look for scale: new markets, partnerships and a strong team.",
					"uz": "Biznesingiz tizim asosida ishlaydi. Kengayishni izlang: yangi bozorlar, hamkorliklar va kuchli jamoa.",
				},
			},
		},
		OutOfRange: Localized{
			"en": "Your score falls outside the range this test can assess.",
			"uz": "Natijangiz ushbu test baholay oladigan oraliqdan tashqarida.",
		},
		CategoryAdvice: map[string]Localized{
			"retail": {
				"en": "For retail: track stock turnover weekly and keep your best sellers always available.",
				"uz": "Chakana savdo uchun: tovar aylanmasini har hafta kuzating va eng ko'p sotiladigan mahsulotlarni doim mavjud saqlang.",
			},
			"food service": {
				"en": "For food service: food cost and table turnover decide your margin; review both every month.",
				"uz": "Umumiy ovqatlanish uchun: oziq-ovqat tannarxi va stol aylanmasi foydangizni belgilaydi; ikkalasini har oy tekshiring.",
			},
			"online": {
				"en": "For online businesses: your conversion rate matters more than traffic; test one change at a time.",
				"uz": "Onlayn biznes uchun: konversiya trafikdan muhimroq; bir vaqtda bitta o'zgarishni sinab ko'ring.",
			},
		},
	}
}
